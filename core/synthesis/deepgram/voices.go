package deepgram

type deepgramVoice string

const (
	VoiceAsteria deepgramVoice = "aura-2-asteria-en"
	VoiceThalia  deepgramVoice = "aura-2-thalia-en"
	VoiceLuna    deepgramVoice = "aura-2-luna-en"
	VoiceAthena  deepgramVoice = "aura-2-athena-en"
	VoiceHera    deepgramVoice = "aura-2-hera-en"
	VoiceOrion   deepgramVoice = "aura-2-orion-en"
	VoiceArcas   deepgramVoice = "aura-2-arcas-en"
	VoiceZeus    deepgramVoice = "aura-2-zeus-en"

	defaultVoice = VoiceAsteria
)

func GetAvailableVoices() []deepgramVoice {
	return []deepgramVoice{
		VoiceAsteria,
		VoiceThalia,
		VoiceLuna,
		VoiceAthena,
		VoiceHera,
		VoiceOrion,
		VoiceArcas,
		VoiceZeus,
	}
}
