package ui

import "math"

// AnimState fades new lines in with a short glow.
type AnimState struct {
	TransitionProgress float64
	GlowIntensity      float64
}

func (a *AnimState) Reset() {
	a.TransitionProgress = 1
	a.GlowIntensity = 0
}

func (a *AnimState) Update(newLine bool, transitionTicks int) {
	if transitionTicks <= 0 {
		transitionTicks = 8
	}

	if newLine {
		a.TransitionProgress = 0
		a.GlowIntensity = 1.0
	}

	if a.TransitionProgress < 1.0 {
		a.TransitionProgress = math.Min(1.0, a.TransitionProgress+1.0/float64(transitionTicks))
	}

	if a.GlowIntensity > 0 {
		a.GlowIntensity *= 0.85
		if a.GlowIntensity < 0.01 {
			a.GlowIntensity = 0
		}
	}
}

// Brightness is the fade-in factor for the current line.
func (a *AnimState) Brightness() float64 {
	return lerp(0.35, 1.0, easeOutCubic(a.TransitionProgress))
}

func easeOutCubic(t float64) float64 {
	if t >= 1 {
		return 1
	}
	if t <= 0 {
		return 0
	}
	return 1 - math.Pow(1-t, 3)
}

func lerp(a float64, b float64, t float64) float64 {
	return a + (b-a)*t
}
