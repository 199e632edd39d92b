package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/labkit/internal/design"
	"github.com/temirov/labkit/internal/dilution"
	"github.com/temirov/labkit/internal/ic50"
	"github.com/temirov/labkit/internal/reagents"
	"github.com/temirov/labkit/internal/serialdilution"
)

const (
	indexTemplatePatternConstant      = "templates/*.html"
	indexTemplateNameConstant         = "index.html"
	healthPathConstant                = "/health"
	indexPathConstant                 = "/"
	factorialPathConstant             = "/api/design/factorial"
	boxBehnkenPathConstant            = "/api/design/box-behnken"
	dilutionPathConstant              = "/api/dilution"
	serialDilutionPathConstant        = "/api/serial-dilution"
	ic50PathConstant                  = "/api/ic50"
	reagentsPathConstant              = "/api/reagents"
	reagentPathConstant               = "/api/reagents/{name}"
	reagentNameVariableConstant       = "name"
	readHeaderTimeout                 = 10 * time.Second
	shutdownTimeout                   = 5 * time.Second
	listenNetworkConstant             = "tcp"
	storeOpenerMissingMessageConstant = "server requires a reagent store opener"
	parseTemplateErrorTemplate        = "unable to parse index template: %w"
	listenErrorTemplateConstant       = "unable to listen on %s: %w"
	serveErrorTemplateConstant        = "http server failed: %w"
	serverListeningMessageConstant    = "Serving labkit"
	serverStoppedMessageConstant      = "Stopped serving labkit"
	addressLogFieldConstant           = "address"
)

//go:embed templates/*.html
var templatesFS embed.FS

// ErrStoreOpenerMissing indicates that NewServer received no reagent store opener.
var ErrStoreOpenerMissing = errors.New(storeOpenerMissingMessageConstant)

// Dependencies wires the server to its collaborators.
type Dependencies struct {
	Logger      *zap.Logger
	StoreOpener reagents.StoreOpener
	Clock       func() time.Time
}

// Server routes HTTP requests to the calculators and the reagent catalog.
type Server struct {
	logger          *zap.Logger
	storeOpener     reagents.StoreOpener
	catalogMutex    sync.Mutex
	clock           func() time.Time
	templates       *template.Template
	router          *mux.Router
	designService   *design.Service
	dilutionService *dilution.Service
	serialService   *serialdilution.Service
	ic50Service     *ic50.Service
}

// NewServer constructs a Server and registers its routes.
func NewServer(dependencies Dependencies) (*Server, error) {
	if dependencies.StoreOpener == nil {
		return nil, ErrStoreOpenerMissing
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := dependencies.Clock
	if clock == nil {
		clock = time.Now
	}
	templates, parseError := template.ParseFS(templatesFS, indexTemplatePatternConstant)
	if parseError != nil {
		return nil, fmt.Errorf(parseTemplateErrorTemplate, parseError)
	}

	lookup := storeLookup{delegate: reagents.OpenerLookup{Open: dependencies.StoreOpener}}
	server := &Server{
		logger:          logger,
		storeOpener:     dependencies.StoreOpener,
		clock:           clock,
		templates:       templates,
		router:          mux.NewRouter(),
		designService:   design.NewService(logger),
		dilutionService: dilution.NewService(logger, lookup),
		serialService:   serialdilution.NewService(logger, lookup),
		ic50Service:     ic50.NewService(logger),
	}
	server.registerRoutes()
	return server, nil
}

func (server *Server) registerRoutes() {
	server.router.HandleFunc(healthPathConstant, server.handleHealth).Methods(http.MethodGet)
	server.router.HandleFunc(indexPathConstant, server.handleIndex).Methods(http.MethodGet)

	server.router.HandleFunc(factorialPathConstant, server.handleCalculator(server.planFactorial)).Methods(http.MethodPost)
	server.router.HandleFunc(boxBehnkenPathConstant, server.handleCalculator(server.planBoxBehnken)).Methods(http.MethodPost)
	server.router.HandleFunc(dilutionPathConstant, server.handleCalculator(server.planDilution)).Methods(http.MethodPost)
	server.router.HandleFunc(serialDilutionPathConstant, server.handleCalculator(server.planSerialDilution)).Methods(http.MethodPost)
	server.router.HandleFunc(ic50PathConstant, server.handleCalculator(server.planIC50)).Methods(http.MethodPost)

	server.router.HandleFunc(reagentsPathConstant, server.handleListReagents).Methods(http.MethodGet)
	server.router.HandleFunc(reagentsPathConstant, server.handleAddReagent).Methods(http.MethodPost)
	server.router.HandleFunc(reagentPathConstant, server.handleUpdateReagent).Methods(http.MethodPut)
	server.router.HandleFunc(reagentPathConstant, server.handleDeleteReagent).Methods(http.MethodDelete)
}

// Handler returns the routed handler wrapped with request logging.
func (server *Server) Handler() http.Handler {
	return server.logRequests(server.router)
}

// Serve answers requests on listener until the context is cancelled, then shuts down gracefully.
func (server *Server) Serve(executionContext context.Context, listener net.Listener) error {
	httpServer := &http.Server{Handler: server.Handler(), ReadHeaderTimeout: readHeaderTimeout}
	group, groupContext := errgroup.WithContext(executionContext)

	group.Go(func() error {
		if serveError := httpServer.Serve(listener); serveError != nil && !errors.Is(serveError, http.ErrServerClosed) {
			return fmt.Errorf(serveErrorTemplateConstant, serveError)
		}
		return nil
	})
	group.Go(func() error {
		<-groupContext.Done()
		shutdownContext, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownContext)
	})

	waitError := group.Wait()
	server.logger.Info(serverStoppedMessageConstant, zap.String(addressLogFieldConstant, listener.Addr().String()))
	return waitError
}

// ListenAndServe listens on address and serves until the context is cancelled.
func (server *Server) ListenAndServe(executionContext context.Context, address string) error {
	listener, listenError := net.Listen(listenNetworkConstant, address)
	if listenError != nil {
		return fmt.Errorf(listenErrorTemplateConstant, address, listenError)
	}
	server.logger.Info(serverListeningMessageConstant, zap.String(addressLogFieldConstant, listener.Addr().String()))
	return server.Serve(executionContext, listener)
}

// Launcher starts a server over a reagent store.
type Launcher struct {
	Address string
	Logger  *zap.Logger
}

// Launch serves on the configured address until the context is cancelled.
func (launcher Launcher) Launch(executionContext context.Context, storeOpener reagents.StoreOpener) error {
	server, creationError := NewServer(Dependencies{Logger: launcher.Logger, StoreOpener: storeOpener})
	if creationError != nil {
		return creationError
	}
	address := CommandConfiguration{Address: launcher.Address}.Sanitize().Address
	return server.ListenAndServe(executionContext, address)
}
