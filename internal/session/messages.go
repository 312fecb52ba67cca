package session

import "fmt"

const (
	slashCommandStart = "transcribe"
	slashCommandStop  = "transcribe-stop"

	slashCommandStartDescription = "Start live transcription in your current voice channel."
	slashCommandStopDescription  = "Stop live transcription in your current voice channel."

	messageEphemeralWrongGuild        = ":warning: **This command cannot be used in this server.**"
	messageEphemeralUnknownCommand    = ":warning: **Unknown command.**"
	messageEphemeralVoiceLookupFailed = ":warning: **Failed to check your voice channel status.**"
	messageEphemeralJoinVCFirst       = ":warning: **Join a voice channel before running this command.**"
	messageEphemeralAlreadyRunning    = ":warning: **Transcription is already running in this voice channel.**"
	messageEphemeralStartFailed       = ":warning: **Failed to start transcription.**"
	messageEphemeralStopFailed        = ":warning: **Failed to stop transcription.**"
	messageEphemeralNotRunning        = ":warning: **Transcription is not currently running in this voice channel.**"

	messageStartChannel = ":microphone2: **Live transcription started.** Use /transcribe-stop to end it."

	messageAttachmentContent = ":page_facing_up: **Transcription finished.** The full transcript is attached."

	messageStartEphemeralFormat = ":microphone2: <#%s> **transcription started.** The live transcript appears in the voice channel chat."
	messageStopEphemeralFormat  = ":pause_button: <#%s> **transcription stopped.**"

	stopReasonManualSlash      = "stopped by command"
	stopReasonParticipantsLeft = "all participants left the voice channel"
	stopReasonBotRemoved       = "bot was removed from the voice channel"
	stopReasonServerClosed     = "server shutting down"
	stopReasonFatalError       = "fatal pipeline error"
)

func startEphemeral(channelID string) string {
	return fmt.Sprintf(messageStartEphemeralFormat, channelID)
}

func stopEphemeral(channelID string) string {
	return fmt.Sprintf(messageStopEphemeralFormat, channelID)
}

func stopChannelMessage(reason string) string {
	return fmt.Sprintf(":pause_button: **Live transcription stopped.** (%s)", reason)
}
