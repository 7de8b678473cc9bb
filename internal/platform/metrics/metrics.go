package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics agrupa los contadores del dominio. Cada instancia registra en su propio
// Registerer para que varios routers (tests) no choquen en el registro global.
type Metrics struct {
	PetsCreated        prometheus.Counter
	PetsDeleted        prometheus.Counter
	FicketCollisions   prometheus.Counter
	ValidationFailures *prometheus.CounterVec
	LoginFailures      prometheus.Counter
	LoginLockouts      prometheus.Counter
	NotificationsSent  *prometheus.CounterVec
	BreedLookups       *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PetsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "petrecords_pets_created_total",
			Help: "Total number of pet records created",
		}),
		PetsDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "petrecords_pets_soft_deleted_total",
			Help: "Total number of pet records soft-deleted",
		}),
		FicketCollisions: f.NewCounter(prometheus.CounterOpts{
			Name: "petrecords_ficket_collisions_total",
			Help: "Ficket codes regenerated because of a collision",
		}),
		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "petrecords_validation_failures_total",
			Help: "Validation failures by entity",
		}, []string{"entity"}),
		LoginFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "petrecords_login_failures_total",
			Help: "Failed login attempts",
		}),
		LoginLockouts: f.NewCounter(prometheus.CounterOpts{
			Name: "petrecords_login_lockouts_total",
			Help: "Logins rejected because the identity is locked",
		}),
		NotificationsSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "petrecords_notifications_emitted_total",
			Help: "Notifications emitted by type",
		}, []string{"type"}),
		BreedLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "petrecords_breed_lookups_total",
			Help: "Breed catalog lookups by species and result (hit, miss, error)",
		}, []string{"species", "result"}),
	}
}

// Nop devuelve métricas registradas en un registro descartable.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) IncPetsCreated() {
	if m != nil {
		m.PetsCreated.Inc()
	}
}

func (m *Metrics) IncPetsDeleted() {
	if m != nil {
		m.PetsDeleted.Inc()
	}
}

func (m *Metrics) IncFicketCollisions() {
	if m != nil {
		m.FicketCollisions.Inc()
	}
}

func (m *Metrics) IncValidationFailure(entity string) {
	if m != nil {
		m.ValidationFailures.WithLabelValues(entity).Inc()
	}
}

func (m *Metrics) IncLoginFailures() {
	if m != nil {
		m.LoginFailures.Inc()
	}
}

func (m *Metrics) IncLoginLockouts() {
	if m != nil {
		m.LoginLockouts.Inc()
	}
}

func (m *Metrics) IncNotifications(kind string) {
	if m != nil {
		m.NotificationsSent.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncBreedLookup(species, result string) {
	if m != nil {
		m.BreedLookups.WithLabelValues(species, result).Inc()
	}
}
