package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/client"
	"github.com/stemsi/exstem-proctor/internal/config"
	"github.com/stemsi/exstem-proctor/internal/console"
	"github.com/stemsi/exstem-proctor/internal/database"
	"github.com/stemsi/exstem-proctor/internal/handler"
	"github.com/stemsi/exstem-proctor/internal/host"
	"github.com/stemsi/exstem-proctor/internal/logger"
	"github.com/stemsi/exstem-proctor/internal/middleware"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/response"
	"github.com/stemsi/exstem-proctor/internal/router"
	"github.com/stemsi/exstem-proctor/internal/session"
	"github.com/stemsi/exstem-proctor/internal/websocket"
	"github.com/stemsi/exstem-proctor/internal/worker"
)

func main() {
	os.Exit(run())
}

func run() int {
	email := flag.String("email", "", "test-taker email")
	birthdate := flag.String("birthdate", "", "test-taker birthdate (YYYY-MM-DD)")
	testID := flag.Int64("test", 0, "test id to open; prompts when omitted")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	logFile, err := logger.OpenFile(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
		return 1
	}
	defer logFile.Close()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, logFile)
	log.Info().
		Str("api", cfg.APIBaseURL).
		Str("log_level", cfg.LogLevel).
		Bool("status_server", cfg.StatusAddr != "").
		Bool("journal", cfg.RedisURL != "").
		Msg("Starting exstem proctor")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─── Take Over the Terminal ────────────────────────────────────────
	term, err := host.OpenTerminal(os.Stdin, os.Stdout, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open terminal")
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer term.Terminate()

	portal := client.NewPortalClient(cfg.APIBaseURL, cfg.HTTPTimeout, log)

	att, err := openAttempt(ctx, portal, term, *email, *birthdate, *testID)
	if err != nil {
		if errors.Is(err, console.ErrAborted) || errors.Is(err, context.Canceled) {
			return 0
		}
		body := response.ErrorFrom(err)
		log.Error().Err(err).Str("code", string(body.Code)).Msg("Could not start the test")
		console.Screen(term, "Could not start the test", body.Message+"\n\nPress Enter to exit.")
		_ = console.WaitForEnter(ctx, term.Events())
		return 1
	}

	code := runSession(ctx, cfg, log, term, portal, att)
	fmt.Println("The test session has ended. You may close this window.")
	return code
}

// attempt is everything needed to run a started test.
type attempt struct {
	email     string
	token     string
	testID    int64
	attemptID int64
	exam      *model.Exam
	duration  time.Duration
}

func openAttempt(ctx context.Context, portal *client.PortalClient, term *host.Terminal, email, birthdate string, testID int64) (*attempt, error) {
	events := term.Events()
	var err error

	// ─── Login ─────────────────────────────────────────────────────────
	page := console.Page("Test Portal Login", "")
	console.Screen(term, "Test Portal Login", "")
	if email == "" {
		if email, err = console.Prompt(ctx, term, events, page, "Email: "); err != nil {
			return nil, err
		}
	}
	page += "Email: " + email + "\n"
	if birthdate == "" {
		if birthdate, err = console.Prompt(ctx, term, events, page, "Birthdate (YYYY-MM-DD): "); err != nil {
			return nil, err
		}
	}
	console.Screen(term, "Test Portal Login", "Signing in...")

	login, err := portal.Login(ctx, model.LoginRequest{Email: email, Birthdate: birthdate})
	if err != nil {
		return nil, err
	}

	test, err := chooseTest(ctx, term, login.Tests, testID)
	if err != nil {
		return nil, err
	}

	// ─── Instructions ──────────────────────────────────────────────────
	initResp, err := portal.InitTest(ctx, model.InitTestRequest{Email: email, Token: login.Token, TestID: test.TestID})
	if err != nil {
		return nil, err
	}
	console.Screen(term, test.TestName+": Instructions",
		initResp.InstructionText()+"\n\nPress Enter to start the test.")
	if err := console.WaitForEnter(ctx, events); err != nil {
		return nil, err
	}

	// ─── Start ─────────────────────────────────────────────────────────
	start, err := portal.StartTest(ctx, model.StartTestRequest{
		Email:     email,
		Token:     login.Token,
		TestID:    test.TestID,
		AttemptID: initResp.AttemptID,
	})
	if err != nil {
		return nil, err
	}

	minutes := start.DurationMinutes
	if minutes <= 0 {
		minutes = test.DurationMinutes
	}

	return &attempt{
		email:     email,
		token:     login.Token,
		testID:    test.TestID,
		attemptID: initResp.AttemptID,
		exam:      model.ParseExam(start.QuestionJSON),
		duration:  time.Duration(minutes) * time.Minute,
	}, nil
}

func chooseTest(ctx context.Context, term *host.Terminal, tests []model.TestSummary, testID int64) (model.TestSummary, error) {
	if testID > 0 {
		for _, t := range tests {
			if t.TestID == testID {
				return t, nil
			}
		}
		return model.TestSummary{}, &client.APIError{StatusCode: http.StatusNotFound, Message: fmt.Sprintf("Test %d is not assigned to you.", testID)}
	}

	switch len(tests) {
	case 0:
		return model.TestSummary{}, &client.APIError{StatusCode: http.StatusNotFound, Message: "No tests are available right now."}
	case 1:
		return tests[0], nil
	}

	var b strings.Builder
	for i, t := range tests {
		fmt.Fprintf(&b, "%d. %s (%s to %s)\n", i+1, t.TestName, t.TestStartTime, t.TestEndTime)
	}
	page := console.Page("Available Tests", b.String())
	for {
		answer, err := console.Prompt(ctx, term, term.Events(), page, "Test number: ")
		if err != nil {
			return model.TestSummary{}, err
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(tests) {
			return tests[n-1], nil
		}
	}
}

func runSession(ctx context.Context, cfg *config.Config, log zerolog.Logger, term *host.Terminal, portal *client.PortalClient, att *attempt) int {
	var observers []session.Observer

	// ─── Violation Journal ─────────────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	close(workerDone)
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Warn().Err(err).Msg("Violation journal disabled")
		} else {
			defer rdb.Close()
			journal := worker.NewViolationWorker(worker.NewRedisSink(rdb), att.email, att.testID, att.attemptID, log)
			observers = append(observers, journal)
			workerDone = make(chan struct{})
			go func() {
				defer close(workerDone)
				journal.Start(workerCtx)
			}()
		}
	}

	// ─── Session ───────────────────────────────────────────────────────
	hub := websocket.NewHub(log)
	observers = append(observers, hub)

	con := console.New(term, log)
	ctrl := session.NewController(session.Options{
		Email:              att.email,
		Token:              att.token,
		TestID:             att.testID,
		AttemptID:          att.attemptID,
		Exam:               att.exam,
		Duration:           att.duration,
		Saver:              portal,
		Host:               term,
		Presenter:          con,
		Keys:               con,
		Observers:          observers,
		Clock:              session.SystemClock,
		Log:                log,
		FinalWarningDelay:  session.DefaultFinalWarningDelay,
		ViolationHideDelay: session.DefaultViolationHideDelay,
	})
	con.Attach(ctrl)

	// ─── Status Server ─────────────────────────────────────────────────
	var srv *http.Server
	if cfg.StatusAddr != "" {
		handlers := &router.Handlers{
			Status: handler.NewStatusHandler(ctrl, log),
			WS:     handler.NewWSHandler(ctrl, hub, log, cfg.AllowedOrigins),
		}
		limiter := middleware.NewRateLimiter(workerCtx, 120, time.Minute)
		srv = &http.Server{
			Addr:              cfg.StatusAddr,
			Handler:           router.SetupRouter(handlers, limiter, cfg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.StatusAddr).Msg("Status server listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("Status server error")
			}
		}()
	}

	runErr := ctrl.Run(ctx)

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	hub.Close()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Status server shutdown error")
		}
		cancel()
	}
	workerCancel()
	<-workerDone

	if runErr != nil {
		log.Warn().Err(runErr).Msg("Session interrupted")
		return 130
	}
	log.Info().Msg("Shutdown complete")
	return 0
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
