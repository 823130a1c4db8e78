package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/antonio-alexander/go-employee-directory/internal"
	"github.com/antonio-alexander/go-employee-directory/internal/cache"
	"github.com/antonio-alexander/go-employee-directory/internal/client"
	"github.com/antonio-alexander/go-employee-directory/internal/data"
	"github.com/antonio-alexander/go-employee-directory/internal/pdf"
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
	pwd, _ := os.Getwd()
	args := os.Args[1:]
	envs, err := internal.Envs(os.Environ())
	if err != nil {
		os.Stderr.WriteString(err.Error())
		os.Exit(1)
	}
	osSignal := make(chan os.Signal, 1)
	signal.Notify(osSignal, syscall.SIGINT, syscall.SIGTERM)
	if err := Main(pwd, args, envs, osSignal); err != nil {
		os.Stderr.WriteString(err.Error())
		os.Exit(1)
	}
}

func printJson(item any) error {
	bytes, err := json.MarshalIndent(item, "", " ")
	if err != nil {
		return err
	}
	fmt.Println(string(bytes))
	return nil
}

// printResponseError surfaces the message (and field errors) provided by
// the service
func printResponseError(err error) {
	var responseErr *data.ResponseError

	if !errors.As(err, &responseErr) {
		return
	}
	fmt.Printf("%d: %s\n", responseErr.StatusCode, responseErr.Message)
	for _, fieldErr := range responseErr.Errors {
		fmt.Printf("  %v: %s\n", fieldErr.Path, fieldErr.Message)
	}
}

func writePdf(directory, filename string, writeFx func(f *os.File) error) error {
	path := filepath.Join(directory, filename)
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := writeFx(file); err != nil {
		return err
	}
	fmt.Printf("exported: %s\n", path)
	return nil
}

func Main(pwd string, args []string, envs map[string]string, osSignal chan os.Signal) error {
	fmt.Printf("client: go-employee-directory v%s (%s) built from: %s\n",
		Version, GitCommit, GitBranch)

	ctx := internal.CtxWithCorrelationId(context.Background(), internal.GenerateId())
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-ctx.Done():
		case <-osSignal:
			cancel()
		}
	}()

	// create utilities
	logger := utilities.NewLogger()
	_ = logger.Configure(envs)
	counter := utilities.NewCounter()

	//create cache
	cache, err := cache.New(envs["CACHE_TYPE"], logger)
	if err != nil {
		return err
	}
	parameters := []any{logger, counter}
	if cache != nil {
		if err := cache.Configure(envs); err != nil {
			return err
		}
		if err := cache.Open(ctx); err != nil {
			return err
		}
		defer func() {
			if err := cache.Close(context.Background()); err != nil {
				fmt.Printf("error while closing cache: %s\n", err)
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
			fmt.Printf("error while closing client: %s\n", err)
		}
	}()

	// execute command
	outputDirectory := envs["OUTPUT_DIRECTORY"]
	if outputDirectory == "" {
		outputDirectory = pwd
	}
	id, _ := strconv.ParseInt(envs["EMPLOYEE_ID"], 10, 64)
	switch command := envs["COMMAND"]; command {
	default:
		return errors.Errorf("unsupported command: %s", command)
	case "employees_read":
		employees, err := client.EmployeesRead(ctx)
		if err != nil {
			return err
		}
		if err := printJson(employees); err != nil {
			return err
		}
		hit, miss := counter.Read(data.ResourceEmployees)
		fmt.Printf("cache hit/miss: %d/%d\n", hit, miss)
	case "employee_read":
		employee, err := client.EmployeeRead(ctx, id)
		if err != nil {
			printResponseError(err)
			return err
		}
		return printJson(employee)
	case "employee_create":
		var payload data.EmployeePayload

		source := envs["EMPLOYEE_PAYLOAD"]
		if len(args) > 0 {
			source = args[0]
		}
		if err := json.Unmarshal([]byte(source), &payload); err != nil {
			return errors.Wrap(err, "unable to parse employee payload")
		}
		employee, err := client.EmployeeCreate(ctx, payload)
		if err != nil {
			printResponseError(err)
			return err
		}
		return printJson(employee)
	case "employee_delete":
		if err := client.EmployeeDelete(ctx, id); err != nil {
			printResponseError(err)
			return err
		}
		fmt.Printf("deleted employee: %d\n", id)
	case "export_directory":
		employees, err := client.EmployeesRead(ctx)
		if err != nil {
			return err
		}
		return writePdf(outputDirectory, pdf.DirectoryFilename(time.Now()),
			func(f *os.File) error { return pdf.Directory(f, employees) })
	case "export_profile":
		employee, err := client.EmployeeRead(ctx, id)
		if err != nil {
			printResponseError(err)
			return err
		}
		return writePdf(outputDirectory, pdf.ProfileFilename(employee.FullName),
			func(f *os.File) error { return pdf.Profile(f, employee) })
	case "timers_read":
		timers, err := client.TimersRead(ctx)
		if err != nil {
			return err
		}
		return printJson(timers)
	case "timers_clear":
		return client.TimersClear(ctx)
	}
	return nil
}
