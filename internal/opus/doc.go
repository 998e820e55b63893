// Package opus converts between Discord's Opus voice frames and raw PCM.
//
// Discord voice runs 48 kHz stereo Opus at 20 ms frames. Decoder turns
// incoming packets into interleaved stereo int16 samples for the recorder;
// Encoder turns mono PCM back into Opus frames for playback. StreamToVoice
// pushes encoded frames into a voice connection's send channel, which
// discordgo drains at the frame rate.
package opus
