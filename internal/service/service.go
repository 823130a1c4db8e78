package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-directory/internal"
	"github.com/antonio-alexander/go-employee-directory/internal/data"
	"github.com/antonio-alexander/go-employee-directory/internal/logic"
	"github.com/antonio-alexander/go-employee-directory/internal/utilities"
	"github.com/antonio-alexander/go-employee-directory/internal/validation"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/cors"
)

const defaultMaxBodySize int64 = 1 << 20

var (
	Version   string
	GitCommit string
	GitBranch string
)

func init() {
	if Version = data.Version; Version == "" {
		Version = "<no_version_provided>"
	}
	if GitCommit = data.GitCommit; GitCommit == "" {
		GitCommit = "<no_git_commit>"
	}
	if GitBranch = data.GitBranch; GitBranch == "" {
		GitBranch = "<no_git_branch>"
	}
}

type service struct {
	sync.RWMutex
	sync.WaitGroup
	config struct {
		address          string
		port             string
		shutdownTimeout  time.Duration
		maxBodySize      int64
		allowedOrigins   []string
		allowedMethods   []string
		allowedHeaders   []string
		allowCredentials bool
		corsDisabled     bool
		corsDebug        bool
		timersEnabled    bool
		sslCrtFile       string
		sslKeyFile       string
		sslCaFile        string
	}
	ctx       context.Context
	cancel    context.CancelFunc
	validator *validation.Validator
	*mux.Router
	*http.Server
	utilities.Logger
	utilities.Timers
	logic.Logic
	opened bool
}

// NewService creates the http api; routes are registered immediately so the
// returned value can be used as an http.Handler without being opened
func NewService(parameters ...any) (interface {
	internal.Configurer
	internal.Opener
	http.Handler
}, error) {
	validator, err := validation.NewValidator()
	if err != nil {
		return nil, err
	}
	router := mux.NewRouter()
	s := &service{
		Router:    router,
		Server:    &http.Server{Handler: router},
		Logger:    utilities.NewLogger(),
		validator: validator,
	}
	s.config.shutdownTimeout = 10 * time.Second
	s.config.maxBodySize = defaultMaxBodySize
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case logic.Logic:
			s.Logic = p
		case utilities.Timers:
			s.Timers = p
		case utilities.Logger:
			s.Logger = p
		}
	}
	s.buildRoutes()
	return s, nil
}

func (s *service) launchServer(listener net.Listener) {
	started := make(chan struct{})
	s.Add(1)
	go func() {
		defer s.WaitGroup.Done()

		close(started)
		var err error
		if s.Server.TLSConfig != nil {
			err = s.Server.ServeTLS(listener, "", "")
		} else {
			err = s.Server.Serve(listener)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Error(s.ctx, "error while serving: %s", err)
		}
	}()
	<-started
	s.Info(s.ctx, "started server: %s", listener.Addr())
}

func (s *service) startTimer(ctx context.Context, group string) func() {
	if !s.config.timersEnabled || s.Timers == nil {
		return func() {}
	}
	timerIndex := s.Timers.Start(group)
	return func() {
		elapsedtime := s.Timers.Stop(group, timerIndex)
		s.Trace(ctx, "%s took %v", group,
			time.Duration(elapsedtime)*time.Nanosecond)
	}
}

// handleError writes the response for err, unexpected errors are logged
func (s *service) handleError(ctx context.Context, writer http.ResponseWriter, err error, failureMessage string) {
	statusCode, message := errorResponse(err, failureMessage)
	if statusCode == http.StatusInternalServerError {
		s.Error(ctx, "%s: %s", failureMessage, err)
	} else {
		s.Debug(ctx, "%s (%d)", message.Message, statusCode)
	}
	handleResponse(writer, statusCode, message)
}

func (s *service) endpointDefault() func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		fmt.Fprintf(writer,
			"go-employee-directory\n"+
				"Version: \"%s\"\n"+
				"Git Commit: \"%s\"\n"+
				"Git Branch: \"%s\"\n",
			Version, GitCommit, GitBranch)
	}
}

func (s *service) endpointEmployeesRead(writer http.ResponseWriter, request *http.Request) {
	ctx := internal.CtxFromRequest(request)
	defer s.startTimer(ctx, "employees_read")()
	employees, err := s.EmployeesRead(ctx)
	if err != nil {
		s.handleError(ctx, writer, err, data.MessageEmployeesFailed)
		return
	}
	if employees == nil {
		employees = []*data.Employee{}
	}
	handleResponse(writer, http.StatusOK, employees)
	s.Trace(ctx, "executed employees_read: %d", len(employees))
}

func (s *service) endpointEmployeeCreate(writer http.ResponseWriter, request *http.Request) {
	ctx := internal.CtxFromRequest(request)
	defer s.startTimer(ctx, "employee_create")()
	defer request.Body.Close()
	bytes, err := io.ReadAll(http.MaxBytesReader(writer, request.Body, s.config.maxBodySize))
	if err != nil {
		s.handleError(ctx, writer, &data.ValidationError{Errors: []data.FieldError{{
			Path:    []string{},
			Message: err.Error(),
		}}}, data.MessageCreateFailed)
		return
	}
	payload, err := s.validator.EmployeePayload(bytes)
	if err != nil {
		s.handleError(ctx, writer, err, data.MessageCreateFailed)
		return
	}
	employee, err := s.EmployeeCreate(ctx, *payload)
	if err != nil {
		s.handleError(ctx, writer, err, data.MessageCreateFailed)
		return
	}
	handleResponse(writer, http.StatusCreated, employee)
	s.Trace(ctx, "executed employee_create: %d", employee.Id)
}

func (s *service) endpointEmployeeRead(writer http.ResponseWriter, request *http.Request) {
	ctx := internal.CtxFromRequest(request)
	defer s.startTimer(ctx, "employee_read")()
	id, err := idFromPath(mux.Vars(request))
	if err != nil {
		s.handleError(ctx, writer, err, data.MessageEmployeeFailed)
		return
	}
	employee, err := s.EmployeeRead(ctx, id)
	if err != nil {
		s.handleError(ctx, writer, err, data.MessageEmployeeFailed)
		return
	}
	handleResponse(writer, http.StatusOK, employee)
	s.Trace(ctx, "executed employee_read: %d", employee.Id)
}

func (s *service) endpointEmployeeDelete(writer http.ResponseWriter, request *http.Request) {
	ctx := internal.CtxFromRequest(request)
	defer s.startTimer(ctx, "employee_delete")()
	id, err := idFromPath(mux.Vars(request))
	if err != nil {
		s.handleError(ctx, writer, err, data.MessageDeleteFailed)
		return
	}
	if err := s.EmployeeDelete(ctx, id); err != nil {
		s.handleError(ctx, writer, err, data.MessageDeleteFailed)
		return
	}
	handleResponse(writer, http.StatusOK, &data.Message{Message: data.MessageEmployeeDeleted})
	s.Trace(ctx, "executed employee_delete: %d", id)
}

func (s *service) endpointTimersRead(writer http.ResponseWriter, _ *http.Request) {
	if s.Timers == nil {
		handleResponse(writer, http.StatusOK, &data.Timers{})
		return
	}
	handleResponse(writer, http.StatusOK, s.Timers.ReadAll())
}

func (s *service) endpointTimersClear(writer http.ResponseWriter, request *http.Request) {
	ctx := internal.CtxFromRequest(request)
	if s.Timers != nil {
		s.Timers.Clear()
	}
	handleResponse(writer, http.StatusNoContent, nil)
	s.Trace(ctx, "executed timers_clear")
}

func methodNotAllowed(writer http.ResponseWriter) {
	handleResponse(writer, http.StatusMethodNotAllowed,
		&data.Message{Message: data.MessageMethodNotAllowed})
}

func (s *service) buildRoutes() {
	s.Router.HandleFunc("/", s.endpointDefault())
	s.Router.HandleFunc(data.RouteEmployees, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			methodNotAllowed(w)
		case http.MethodGet:
			s.endpointEmployeesRead(w, r)
		case http.MethodPost:
			s.endpointEmployeeCreate(w, r)
		}
	})
	s.Router.HandleFunc(data.RouteEmployeesId, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			methodNotAllowed(w)
		case http.MethodGet:
			s.endpointEmployeeRead(w, r)
		case http.MethodDelete:
			s.endpointEmployeeDelete(w, r)
		}
	})
	s.Router.HandleFunc(data.RouteTimers, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		default:
			methodNotAllowed(w)
		case http.MethodGet:
			s.endpointTimersRead(w, r)
		case http.MethodDelete:
			s.endpointTimersClear(w, r)
		}
	})
}

func (s *service) Configure(envs map[string]string) error {
	s.Lock()
	defer s.Unlock()

	if address, ok := envs["SERVICE_ADDRESS"]; ok {
		s.config.address = address
	}
	if port, ok := envs["SERVICE_PORT"]; ok {
		s.config.port = port
	}
	if shutdownTimeoutString, ok := envs["SERVICE_SHUTDOWN_TIMEOUT"]; ok {
		if shutdownTimeoutInt, err := strconv.Atoi(shutdownTimeoutString); err == nil {
			if timeout := time.Duration(shutdownTimeoutInt) * time.Second; timeout > 0 {
				s.config.shutdownTimeout = timeout
			}
		}
	}
	if maxBodySizeString, ok := envs["SERVICE_MAX_BODY_SIZE"]; ok {
		if maxBodySize, err := strconv.ParseInt(maxBodySizeString, 10, 64); err == nil && maxBodySize > 0 {
			s.config.maxBodySize = maxBodySize
		}
	}
	if allowCredentialsString, ok := envs["SERVICE_CORS_ALLOW_CREDENTIALS"]; ok {
		if allowCredentials, err := strconv.ParseBool(allowCredentialsString); err == nil {
			s.config.allowCredentials = allowCredentials
		}
	}
	if allowedOrigins := envs["SERVICE_CORS_ALLOWED_ORIGINS"]; allowedOrigins != "" {
		s.config.allowedOrigins = strings.Split(allowedOrigins, ",")
	}
	if allowedMethods := envs["SERVICE_CORS_ALLOWED_METHODS"]; allowedMethods != "" {
		s.config.allowedMethods = strings.Split(allowedMethods, ",")
	}
	if allowedHeaders := envs["SERVICE_CORS_ALLOWED_HEADERS"]; allowedHeaders != "" {
		s.config.allowedHeaders = strings.Split(allowedHeaders, ",")
	}
	if corsDisabledString, ok := envs["SERVICE_CORS_DISABLED"]; ok {
		if corsDisabled, err := strconv.ParseBool(corsDisabledString); err == nil {
			s.config.corsDisabled = corsDisabled
		}
	}
	if corsDebug, ok := envs["SERVICE_CORS_DEBUG"]; ok {
		if corsDebug, err := strconv.ParseBool(corsDebug); err == nil {
			s.config.corsDebug = corsDebug
		}
	}
	if timersEnabled := envs["SERVICE_TIMERS_ENABLED"]; timersEnabled != "" {
		s.config.timersEnabled, _ = strconv.ParseBool(timersEnabled)
	}
	if sslCrtFile, ok := envs["SERVICE_SSL_CRT_FILE"]; ok {
		s.config.sslCrtFile = sslCrtFile
	}
	if sslKeyFile, ok := envs["SERVICE_SSL_KEY_FILE"]; ok {
		s.config.sslKeyFile = sslKeyFile
	}
	if sslCaFile, ok := envs["SERVICE_SSL_CA_FILE"]; ok {
		s.config.sslCaFile = sslCaFile
	}
	return nil
}

func (s *service) Open(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if s.opened {
		return nil
	}
	if s.Logic == nil {
		return errors.New("service: logic not provided")
	}
	tlsConfig, err := internal.GetTlsConfig(s.config.sslCrtFile,
		s.config.sslKeyFile, s.config.sslCaFile)
	if err != nil {
		return err
	}
	switch {
	case tlsConfig == nil:
	case len(tlsConfig.Certificates) == 0:
		//KIM: a ca without a certificate only matters to clients
		tlsConfig = nil
	default:
		tlsConfig.ClientAuth = tls.NoClientCert
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.Server.Addr = net.JoinHostPort(s.config.address, s.config.port)
	s.Server.TLSConfig = tlsConfig
	s.Server.Handler = s.Router
	if !s.config.corsDisabled {
		s.Server.Handler = cors.New(cors.Options{
			AllowedOrigins:   s.config.allowedOrigins,
			AllowCredentials: s.config.allowCredentials,
			AllowedMethods:   s.config.allowedMethods,
			AllowedHeaders:   s.config.allowedHeaders,
			Debug:            s.config.corsDebug,
		}).Handler(s.Router)
	}
	//KIM: listening before serving surfaces errors such as the port
	// already being in use
	listener, err := net.Listen("tcp", s.Server.Addr)
	if err != nil {
		s.cancel()
		return err
	}
	s.launchServer(listener)
	s.opened = true
	return nil
}

func (s *service) Close(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if !s.opened {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.shutdownTimeout)
	defer cancel()
	if err := s.Server.Shutdown(ctx); err != nil {
		s.Error(ctx, "error while shutting down the server: %s", err)
	}
	s.cancel()
	s.Wait()
	s.opened = false
	return nil
}
