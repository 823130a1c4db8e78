package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/antonio-alexander/go-employee-directory/internal"
	"github.com/antonio-alexander/go-employee-directory/internal/cache"
	"github.com/antonio-alexander/go-employee-directory/internal/client"
	"github.com/antonio-alexander/go-employee-directory/internal/data"
	"github.com/antonio-alexander/go-employee-directory/internal/utilities"

	"github.com/pkg/errors"
)

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

func main() {
	args := os.Args[1:]
	envs, err := internal.Envs(os.Environ())
	if err != nil {
		os.Stderr.WriteString(err.Error())
		os.Exit(1)
	}
	osSignal := make(chan os.Signal, 1)
	signal.Notify(osSignal, syscall.SIGINT, syscall.SIGTERM)
	if err := Main(args, envs, osSignal); err != nil {
		os.Stderr.WriteString(err.Error())
		os.Exit(1)
	}
}

func newPayload(email string) data.EmployeePayload {
	id := internal.GenerateId()
	if email == "" {
		email = id + "@example.com"
	}
	return data.EmployeePayload{
		EmployerId:    "EMP-" + id[:8],
		FullName:      "Scenario " + id[:12],
		DateOfJoining: time.Now().Format("2006-01-02"),
		Department:    data.Departments[0],
		Designation:   "Engineer",
		Location:      "Remote",
		Email:         email,
		Phone:         "555-0100",
	}
}

type createResult struct {
	employee *data.Employee
	err      error
}

// createConcurrently has every client create nCreates employees at the same
// time, payloadFx provides the payload for each create
func createConcurrently(ctx context.Context, nCreates int, payloadFx func() data.EmployeePayload,
	clients ...client.Client) []createResult {
	var wg sync.WaitGroup
	var mu sync.Mutex

	var results []createResult
	start := make(chan struct{})
	for i, c := range clients {
		wg.Add(1)
		go func(ctx context.Context, clientNumber int, client client.Client) {
			defer wg.Done()

			ctx = internal.CtxWithCorrelationId(ctx,
				fmt.Sprintf("scenario_client_%d", clientNumber))
			<-start
			for range nCreates {
				employee, err := client.EmployeeCreate(ctx, payloadFx())
				mu.Lock()
				results = append(results, createResult{employee, err})
				mu.Unlock()
			}
		}(ctx, i, c)
	}
	close(start)
	wg.Wait()
	return results
}

func cleanup(ctx context.Context, logger utilities.Logger, c client.Client, results []createResult) {
	for _, result := range results {
		if result.employee == nil {
			continue
		}
		if err := c.EmployeeDelete(ctx, result.employee.Id); err != nil {
			logger.Error(ctx, "error while deleting employee %d: %s", result.employee.Id, err)
		}
	}
}

// scenarioConcurrentCreate verifies that concurrent creates from multiple
// clients are each assigned a distinct id
func scenarioConcurrentCreate(ctx context.Context, envs map[string]string, logger utilities.Logger,
	clients ...client.Client) error {
	const correlationId string = "scenario_concurrent_create"

	nCreates := 10
	if s := envs["SCENARIO_N_CREATES"]; s != "" {
		nCreates, _ = strconv.Atoi(s)
	}
	if len(clients) < 1 {
		return errors.New("not enough clients provided")
	}
	ctx = internal.CtxWithCorrelationId(ctx, correlationId)
	tStart := time.Now()
	results := createConcurrently(ctx, nCreates, func() data.EmployeePayload {
		return newPayload("")
	}, clients...)
	elapsed := time.Since(tStart)
	defer cleanup(ctx, logger, clients[0], results)

	ids := make(map[int64]struct{})
	for _, result := range results {
		if result.err != nil {
			return result.err
		}
		if _, found := ids[result.employee.Id]; found {
			return errors.Errorf("id %d assigned more than once", result.employee.Id)
		}
		ids[result.employee.Id] = struct{}{}
	}
	logger.Info(ctx, "created %d employees in %v", len(ids), elapsed)

	// the cached collection was invalidated by the creates
	employees, err := clients[0].EmployeesRead(ctx)
	if err != nil {
		return err
	}
	found := 0
	for _, employee := range employees {
		if _, ok := ids[employee.Id]; ok {
			found++
		}
	}
	if found != len(ids) {
		return errors.Errorf("expected %d created employees, read %d", len(ids), found)
	}
	return nil
}

// scenarioDuplicateEmail races creates with the same email, exactly one
// should be accepted
func scenarioDuplicateEmail(ctx context.Context, envs map[string]string, logger utilities.Logger,
	clients ...client.Client) error {
	const correlationId string = "scenario_duplicate_email"

	if len(clients) < 2 {
		return errors.New("not enough clients provided")
	}
	ctx = internal.CtxWithCorrelationId(ctx, correlationId)
	email := internal.GenerateId() + "@example.com"
	results := createConcurrently(ctx, 1, func() data.EmployeePayload {
		return newPayload(email)
	}, clients...)
	defer cleanup(ctx, logger, clients[0], results)

	var created, conflicts int
	for _, result := range results {
		switch {
		case result.err == nil:
			created++
		case errors.Is(result.err, data.ErrEmployeeConflict):
			conflicts++
		default:
			return result.err
		}
	}
	logger.Info(ctx, "created: %d, conflicts: %d", created, conflicts)
	if created != 1 {
		return errors.Errorf("expected exactly one employee with %s, created %d", email, created)
	}
	return nil
}

func Main(args []string, envs map[string]string, osSignal chan os.Signal) error {
	var clients []client.Client
	var wg sync.WaitGroup

	//create context
	ctx, cancel := internal.LaunchContext(&wg, osSignal)
	defer cancel()

	// create logger
	logger := utilities.NewLogger()
	_ = logger.Configure(envs)

	//print version info
	logger.Info(ctx, "scenarios: go-employee-directory v%s (%s) built from: %s",
		Version, GitCommit, GitBranch)

	nClients, _ := strconv.Atoi(envs["N_CLIENTS"])
	if nClients <= 0 {
		nClients = 1
	}
	for range nClients {
		//create cache
		cache, err := cache.New(envs["CACHE_TYPE"], logger)
		if err != nil {
			return err
		}
		parameters := []any{logger}
		if cache != nil {
			if err := cache.Configure(envs); err != nil {
				return err
			}
			if err := cache.Open(ctx); err != nil {
				return err
			}
			defer func() {
				if err := cache.Close(context.Background()); err != nil {
					logger.Error(ctx, "error while closing cache: %s", err)
				}
			}()
			parameters = append([]any{cache}, parameters...)
		}

		//create client
		client := client.NewClient(parameters...)
		if err := client.Configure(envs); err != nil {
			return err
		}
		if err := client.Open(ctx); err != nil {
			return err
		}
		defer func() {
			if err := client.Close(context.Background()); err != nil {
				logger.Error(ctx, "error while closing client: %s", err)
			}
		}()
		clients = append(clients, client)
	}

	// execute scenario
	var err error
	switch scenario := envs["SCENARIO"]; scenario {
	default:
		return errors.Errorf("unsupported scenario: %s", scenario)
	case "concurrent_create":
		logger.Info(ctx, "executing %s scenario", scenario)
		if err = scenarioConcurrentCreate(ctx, envs, logger, clients...); err != nil {
			logger.Error(ctx, "error while executing %s scenario: %s", scenario, err)
		}
	case "duplicate_email":
		logger.Info(ctx, "executing %s scenario", scenario)
		if err = scenarioDuplicateEmail(ctx, envs, logger, clients...); err != nil {
			logger.Error(ctx, "error while executing %s scenario: %s", scenario, err)
		}
	}
	cancel()
	wg.Wait()
	return err
}
