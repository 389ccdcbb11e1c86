package engine

import "math"

// Unified progress weights. The three phases always sum to 1.0; weighting is
// by declared bytes within each download phase. This is the documented product
// decision between the two candidate schemes: 40% video, 40% audio, 20% merge.
const (
	weightVideo = 0.40
	weightAudio = 0.40
	weightMerge = 0.20

	// minEmitDeltaPercent suppresses emissions that move the percentage by
	// less than half a point, so the merge ramp does not flood consumers.
	minEmitDeltaPercent = 0.5
)

// Unifier folds per-phase byte progress and the merge fraction into a single
// 0-100 percentage. It is not safe for concurrent use: a job's phases are
// strictly sequential and all updates arrive on the job's goroutine.
type Unifier struct {
	videoTotal int64
	audioTotal int64
	videoDone  int64
	audioDone  int64
	mergeFrac  float64

	emitted     bool
	lastEmitted float64
	emit        func(percent int)
}

// NewUnifier creates a unifier for a job whose selected streams declared the
// given sizes. A declared size of zero means unknown and is substituted with
// a sentinel of one byte: the first reported byte saturates the phase, so an
// unknown-size phase jumps straight to its full weight instead of dividing
// by zero.
func NewUnifier(videoTotal, audioTotal int64, emit func(percent int)) *Unifier {
	if videoTotal <= 0 {
		videoTotal = 1
	}
	if audioTotal <= 0 {
		audioTotal = 1
	}
	if emit == nil {
		emit = func(int) {}
	}
	return &Unifier{videoTotal: videoTotal, audioTotal: audioTotal, emit: emit}
}

// UpdateVideo records cumulative bytes downloaded for the video phase.
func (u *Unifier) UpdateVideo(done int64) {
	u.videoDone = clampBytes(done, u.videoTotal)
	u.publish(false)
}

// CompleteVideo forces the video phase to its declared total, covering
// rounding discrepancies in provider callbacks.
func (u *Unifier) CompleteVideo() {
	u.videoDone = u.videoTotal
	u.publish(true)
}

// UpdateAudio records cumulative bytes downloaded for the audio phase.
func (u *Unifier) UpdateAudio(done int64) {
	u.audioDone = clampBytes(done, u.audioTotal)
	u.publish(false)
}

// CompleteAudio forces the audio phase to its declared total.
func (u *Unifier) CompleteAudio() {
	u.audioDone = u.audioTotal
	u.publish(true)
}

// UpdateMerge records the merge-phase fraction in [0,1]. The fraction never
// moves backwards; reaching 1.0 forces exactly one emission of the final
// percentage.
func (u *Unifier) UpdateMerge(fraction float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	if fraction < u.mergeFrac {
		return
	}
	finishing := fraction >= 1 && u.mergeFrac < 1
	u.mergeFrac = fraction
	u.publish(finishing)
}

// Percent returns the current unified percentage without emitting.
func (u *Unifier) Percent() int {
	return int(u.unified())
}

func (u *Unifier) unified() float64 {
	videoFrac := float64(u.videoDone) / float64(u.videoTotal)
	audioFrac := float64(u.audioDone) / float64(u.audioTotal)
	unified := (videoFrac*weightVideo + audioFrac*weightAudio + u.mergeFrac*weightMerge) * 100
	if unified < 0 {
		return 0
	}
	if unified > 100 {
		return 100
	}
	return unified
}

func (u *Unifier) publish(force bool) {
	unified := u.unified()
	if u.emitted {
		delta := math.Abs(unified - u.lastEmitted)
		if delta == 0 || (!force && delta < minEmitDeltaPercent) {
			return
		}
	}
	u.emitted = true
	u.lastEmitted = unified
	u.emit(int(unified))
}

func clampBytes(done, total int64) int64 {
	if done < 0 {
		return 0
	}
	if done > total {
		return total
	}
	return done
}
