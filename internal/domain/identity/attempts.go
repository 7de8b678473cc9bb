package identity

import "time"

const (
	DefaultMaxLoginAttempts = 5
	DefaultLoginWindow      = 15 * time.Minute
)

// LoginAttempts es el registro de intentos fallidos de una identidad.
// No lo guarda el core: la capa de sesión lo lee, lo pasa al login y persiste el resultado.
type LoginAttempts struct {
	Count       int       `json:"count"`
	WindowStart time.Time `json:"window_start"`
}

// AttemptPolicy define cuántos fallos se toleran dentro de una ventana.
type AttemptPolicy struct {
	Max    int
	Window time.Duration
}

func DefaultAttemptPolicy() AttemptPolicy {
	return AttemptPolicy{Max: DefaultMaxLoginAttempts, Window: DefaultLoginWindow}
}

func (p AttemptPolicy) normalized() AttemptPolicy {
	if p.Max <= 0 {
		p.Max = DefaultMaxLoginAttempts
	}
	if p.Window <= 0 {
		p.Window = DefaultLoginWindow
	}
	return p
}

func (p AttemptPolicy) expired(a LoginAttempts, now time.Time) bool {
	p = p.normalized()
	return a.WindowStart.IsZero() || !now.Before(a.WindowStart.Add(p.Window))
}

// Locked indica si la identidad alcanzó el máximo dentro de la ventana vigente.
func (p AttemptPolicy) Locked(a LoginAttempts, now time.Time) bool {
	p = p.normalized()
	return !p.expired(a, now) && a.Count >= p.Max
}

// RetryAt es el momento en que vence la ventana actual.
func (p AttemptPolicy) RetryAt(a LoginAttempts) time.Time {
	p = p.normalized()
	return a.WindowStart.Add(p.Window)
}

// Fail registra un fallo; si la ventana venció abre una nueva.
func (p AttemptPolicy) Fail(a LoginAttempts, now time.Time) LoginAttempts {
	if p.expired(a, now) {
		return LoginAttempts{Count: 1, WindowStart: now}
	}
	a.Count++
	return a
}

// Succeed limpia el registro tras un login correcto.
func (p AttemptPolicy) Succeed() LoginAttempts {
	return LoginAttempts{}
}
