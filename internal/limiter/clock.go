package limiter

import "time"

// Clock abstrai o relógio para permitir testes determinísticos
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
