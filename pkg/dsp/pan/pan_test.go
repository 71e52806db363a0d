package pan

import (
	"math"
	"testing"
)

func TestMonoToStereo(t *testing.T) {
	tests := []struct {
		name string
		pan  float32
		law  Law
	}{
		{"Center Linear", 0.0, Linear},
		{"Left Linear", -1.0, Linear},
		{"Right Linear", 1.0, Linear},
		{"Center ConstantPower", 0.0, ConstantPower},
		{"Left ConstantPower", -1.0, ConstantPower},
		{"Right ConstantPower", 1.0, ConstantPower},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left, right := MonoToStereo(tt.pan, tt.law)

			if left < 0 || left > 1 || right < 0 || right > 1 {
				t.Errorf("Gains out of range: left=%f, right=%f", left, right)
			}

			switch tt.pan {
			case -1.0:
				if left < 0.9 || right > 0.1 {
					t.Errorf("Hard left incorrect: left=%f, right=%f", left, right)
				}
			case 0.0:
				if math.Abs(float64(left-right)) > 0.001 {
					t.Errorf("Center not balanced: left=%f, right=%f", left, right)
				}
				if tt.law == ConstantPower {
					power := left*left + right*right
					if math.Abs(float64(power-1.0)) > 0.01 {
						t.Errorf("Constant power violation at center: %f", power)
					}
				}
			case 1.0:
				if right < 0.9 || left > 0.1 {
					t.Errorf("Hard right incorrect: left=%f, right=%f", left, right)
				}
			}
		})
	}
}

func TestMonoToStereoClampsInput(t *testing.T) {
	l1, r1 := MonoToStereo(5, ConstantPower)
	l2, r2 := MonoToStereo(1, ConstantPower)
	if l1 != l2 || r1 != r2 {
		t.Errorf("out-of-range pan not clamped: (%f,%f) vs (%f,%f)", l1, r1, l2, r2)
	}
	nan := float32(math.NaN())
	l, r := MonoToStereo(nan, ConstantPower)
	if math.Abs(float64(l-r)) > 0.001 {
		t.Errorf("NaN pan should center, got left=%f right=%f", l, r)
	}
}

func TestFromPosition(t *testing.T) {
	if p := FromPosition(10, 10); p != 1 {
		t.Errorf("FromPosition(10,10) = %f, want 1", p)
	}
	if p := FromPosition(-5, 10); p != -0.5 {
		t.Errorf("FromPosition(-5,10) = %f, want -0.5", p)
	}
	if p := FromPosition(3, 0); p != 0 {
		t.Errorf("FromPosition at listener = %f, want 0", p)
	}
}

func TestWidthMono(t *testing.T) {
	left := []float32{1, 0.5}
	right := []float32{0, -0.5}
	Width(left, right, 0)
	for i := range left {
		if left[i] != right[i] {
			t.Errorf("width 0 should fold to mono at %d: %f != %f", i, left[i], right[i])
		}
	}
}
