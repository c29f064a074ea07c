package main

import (
	"flag"
	"fmt"
	"github.com/caarlos0/env"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/tfischer/tfitpican/comms"
	"github.com/tfischer/tfitpican/recorder"
	"log"
	"net/http"
	"os"
	"path/filepath"
)

// exit codes for headless runs
const (
	EXIT_OK           = 0
	EXIT_BAD_SCENARIO = 1
	EXIT_SESSION_ERR  = 2
)

type EnvConfig struct {
	DEBUG       bool   `env:"DEBUG" envDefault:"0"`
	DBFILE      string `env:"TFITPICAN_DB" envDefault:""`
	SCENARIODIR string `env:"SCENARIODIR" envDefault:"./scenarios"`
}

var (
	ENV *EnvConfig
)

func init() {
	// Load main config
	ENV = new(EnvConfig)
	env.Parse(ENV)
}

func main() {
	// process flags
	scenario := flag.String("scenario", "", "Scenario descriptor to load at startup")
	ticks := flag.Uint64("ticks", 0, "Run this many ticks headless and exit")
	record := flag.Bool("record", false, "Record bus events to the run database")
	port := flag.String("port", "0.0.0.0:8080", "Specify the ip:port to listen on")
	flag.Parse()

	conductor := comms.NewConductor()
	go conductor.UpdateClients()

	session := NewSession(conductor)

	if *record {
		rec, err := openRecorder()
		if err != nil {
			log.Fatalf("unable to open run database: %v", err)
		}
		defer rec.Close()
		session.SetRecorder(rec)
	}

	if *scenario != "" {
		if err := session.Load(scenarioPath(*scenario)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(EXIT_BAD_SCENARIO)
		}
	}

	//---
	// Headless mode: run, report, exit
	//---
	if *ticks > 0 {
		if err := session.Run(*ticks); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitCode(err))
		}

		session.Stop()
		state := session.Snapshot()
		fmt.Printf("%s completed %d ticks\n", state.Scenario, state.Tick)
		os.Exit(EXIT_OK)
	}

	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Recoverer) // make sure this is last

	//---
	// Build the API routes
	//---
	r.Mount("/api", apiRoutes(session))

	// Add websocket routes
	r.Route("/ws", func(r chi.Router) {
		r.Get("/events", EventStreamHandler(conductor))
	})

	//---
	// Create a local shell
	//---
	shell := buildShell(session)
	go shell.Start()

	fmt.Println("Listening on port", *port)
	if err := http.ListenAndServe(*port, r); err != nil {
		log.Fatal(err)
	}
}

// openRecorder resolves the run database location, defaulting to a dev
// checkout path the way the rest of the tooling does.
func openRecorder() (*recorder.Recorder, error) {
	dbFile := ENV.DBFILE
	if dbFile == "" {
		dbFile, _ = filepath.Abs("./tmp/runs.db")
		dir := filepath.Dir(dbFile)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			os.Mkdir(dir, 0755)
		}
	}
	return recorder.Open(dbFile)
}

// exitCode maps a run failure onto the CLI contract: state violations are
// distinct from bad scenarios.
func exitCode(err error) int {
	if isSessionStateErr(err) {
		return EXIT_SESSION_ERR
	}
	return EXIT_BAD_SCENARIO
}
