package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/EmpoweredVote/EV-Prospection/internal/buildings"
	"github.com/EmpoweredVote/EV-Prospection/internal/config"
	"github.com/EmpoweredVote/EV-Prospection/internal/logging"
	"github.com/EmpoweredVote/EV-Prospection/internal/middleware"
	"github.com/EmpoweredVote/EV-Prospection/internal/prospection"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

var defaultOrigins = []string{
	"http://localhost:5173",
	"http://localhost:5174",
}

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")
	logging.Init("prospection")
	log := logging.For("main")

	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	store, err := prospection.NewStore(cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	dataset, err := buildings.Load(cfg.BuildingsFile)
	if err != nil {
		// The map still works for records already stored; only /buildings is empty.
		log.WithError(err).Warn("no building dataset loaded")
	} else {
		log.Infof("loaded %d buildings from %s", len(dataset.IDs()), cfg.BuildingsFile)
	}

	sync := prospection.NewSync(store)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := sync.Load(ctx); err != nil {
		log.WithError(err).Warn("starting without prospection data, will retry on first request")
	}
	cancel()

	h := prospection.NewHandlers(sync, prospection.NewSession(), dataset)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger)
	r.Use(middleware.CORS(origins))
	r.Get("/", RootHandler)

	r.Mount("/prospections", prospection.SetupRoutes(h))

	log.Infof("Server listening on port :%s...", cfg.Port)

	if err := http.ListenAndServe("0.0.0.0:"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
