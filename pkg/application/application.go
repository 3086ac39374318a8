package application

import (
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/stratify-hq/stratify/pkg/eventbus"
)

// Application holds the process-wide collaborators and a type-indexed
// service registry. Transports resolve services from it instead of
// wiring them individually.
type Application interface {
	Pool() *pgxpool.Pool
	EventBus() eventbus.EventBus
	Logger() *logrus.Logger
	RegisterServices(services ...any)
	Service(of any) any
}

type Options struct {
	Pool     *pgxpool.Pool
	EventBus eventbus.EventBus
	Logger   *logrus.Logger
}

func New(opts *Options) Application {
	return &application{
		pool:     opts.Pool,
		eventBus: opts.EventBus,
		logger:   opts.Logger,
		services: map[reflect.Type]any{},
	}
}

type application struct {
	pool     *pgxpool.Pool
	eventBus eventbus.EventBus
	logger   *logrus.Logger
	services map[reflect.Type]any
}

func (app *application) Pool() *pgxpool.Pool         { return app.pool }
func (app *application) EventBus() eventbus.EventBus { return app.eventBus }
func (app *application) Logger() *logrus.Logger      { return app.logger }

// RegisterServices registers services by their concrete type.
func (app *application) RegisterServices(services ...any) {
	for _, service := range services {
		serviceType := reflect.TypeOf(service).Elem()
		app.services[serviceType] = service
	}
}

// Service retrieves a service by the type of the given zero value.
func (app *application) Service(of any) any {
	serviceType := reflect.TypeOf(of)
	svc, exists := app.services[serviceType]
	if !exists {
		panic(fmt.Sprintf("service %s not found", serviceType.Name()))
	}
	return svc
}
