package handler

import (
	"time"

	"github.com/astrathh/taskify-habitory/internal/auth"
	"github.com/astrathh/taskify-habitory/internal/logging"
	"github.com/astrathh/taskify-habitory/internal/service"
	"github.com/astrathh/taskify-habitory/internal/store"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	users         *service.UserService
	tasks         *service.TaskService
	habits        *service.HabitService
	items         *service.Reconciler
	coordinator   *service.Coordinator
	notifications *service.NotificationService
	appointments  *service.AppointmentService
	dashboard     *service.DashboardService
	tokens        *auth.Issuer
	log           *logging.Logger
	loc           *time.Location
	language      string
}

// Options 构造 API 时的可选配置
type Options struct {
	Snapshots       service.SnapshotStore
	Hub             *auth.Hub
	Tokens          *auth.Issuer
	Logger          *logging.Logger
	Location        *time.Location
	DefaultLanguage string
	Clock           func() time.Time
}

// NewAPI constructs a handler set with shared services.
func NewAPI(backend store.Backend, opts Options) *API {
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Snapshots == nil {
		opts.Snapshots = service.NewMemorySnapshots(0)
	}
	if opts.Hub == nil {
		opts.Hub = auth.NewHub()
	}
	if opts.Tokens == nil {
		opts.Tokens = auth.NewIssuer("taskify-dev-secret", 0)
	}

	tasks := service.NewTaskService(backend).WithClock(opts.Clock)
	habits := service.NewHabitService(backend, opts.Location).WithClock(opts.Clock)
	items := service.NewReconciler(backend, habits, opts.Snapshots, opts.Logger)
	notifications := service.NewNotificationService(backend)
	appointments := service.NewAppointmentService(backend)

	return &API{
		users:         service.NewUserService(backend, opts.Hub),
		tasks:         tasks,
		habits:        habits,
		items:         items,
		coordinator:   service.NewCoordinator(items, tasks, habits, opts.Logger),
		notifications: notifications,
		appointments:  appointments,
		dashboard:     service.NewDashboardService(backend, habits, appointments, notifications, opts.Location).WithClock(opts.Clock),
		tokens:        opts.Tokens,
		log:           opts.Logger,
		loc:           opts.Location,
		language:      opts.DefaultLanguage,
	}
}
