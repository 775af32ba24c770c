package audio

// defaultDeviceDir holds the ALSA device nodes.
const defaultDeviceDir = "/dev/snd"
