package smoothing

import (
	"testing"

	"github.com/san-kum/condensim/internal/signal"
)

func BenchmarkMovingAverage(b *testing.B) {
	in := signal.New("x", noisy(100000))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = MovingAverage(in, 1001)
	}
}

func BenchmarkSavitzkyGolay(b *testing.B) {
	in := signal.New("x", noisy(100000))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = SavitzkyGolay(in, 51, 6)
	}
}

func BenchmarkAdaptiveSavitzkyGolay(b *testing.B) {
	in := signal.New("x", noisy(100000))
	phase := signal.New("theta", ramp(100000, 0.05))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = AdaptiveSavitzkyGolay(in, phase, 2, 4, ModePerSample)
	}
}
