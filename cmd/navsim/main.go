// Command navsim runs a simulated robot through a demo waypoint route with
// the full navigation stack: boundary, watchdog, lifecycle and the live
// dashboard.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/StatML/mrpt/internal/config"
	"github.com/StatML/mrpt/internal/log"
	"github.com/StatML/mrpt/pkg/geom"
	"github.com/StatML/mrpt/pkg/nav"
	"github.com/StatML/mrpt/pkg/sim"
	"github.com/StatML/mrpt/pkg/web"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML config file")
	port := flag.String("port", "", "Dashboard port (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("loading config", "error", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.WebPort = *port
	}
	log.Init(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down")
		cancel()
	}()

	robot := sim.NewRobot(nil, geom.Pose2D{})
	obstacles := []geom.Point2D{
		{X: 1.0, Y: 0.8},
		{X: 2.5, Y: 1.6},
	}
	robot.SetObstacles(obstacles)

	boundary := nav.NewBoundary(robot, nil)
	navigator := nav.NewNavigator(boundary, nav.Config{
		ControlPeriod:     cfg.ControlPeriod(),
		WatchdogPeriod:    cfg.WatchdogPeriod(),
		StallTimeout:      cfg.StallTimeout(),
		MaxBlockedRetries: cfg.Nav.MaxBlockedTries,
		MaxSpeed:          cfg.Robot.MaxSpeed,
	})

	server := web.NewServer(cfg.WebPort, navigator)
	navigator.AddEventFunc(server.EventSink())
	server.StartAsync(ctx)
	defer server.Shutdown()

	go publishStatus(ctx, server)

	route := []nav.Waypoint{
		{Target: geom.Point2D{X: 2, Y: 0}, AllowedDistance: 0.2, AllowSkip: true},
		{Target: geom.Point2D{X: 2, Y: 2}, AllowedDistance: 0.2, AllowSkip: true},
		{Target: geom.Point2D{X: 0, Y: 2}, AllowedDistance: 0.2, AllowSkip: true},
		{Target: geom.Point2D{X: 0, Y: 0}, AllowedDistance: 0.2},
	}
	surveyRoute(route, cfg.Robot.Radius, obstacles)

	if err := navigator.Navigate(ctx, route); err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error("navigation failed", "error", err)
		os.Exit(1)
	}
	log.Info("route complete", "nav_time_s", boundary.NavigationTime().Seconds())
}

// surveyRoute logs the collision-free distance of every route leg against
// the known obstacles, the same primitive a local planner would call per
// candidate motion.
func surveyRoute(route []nav.Waypoint, robotRadius float64, obstacles []geom.Point2D) {
	prev := geom.Point2D{}
	for i, wp := range route {
		for _, obs := range obstacles {
			collides, dist, err := geom.CollisionFreeDistance(prev, wp.Target, robotRadius, obs)
			if err != nil {
				log.Warn("degenerate route leg", "leg", i, "error", err)
				continue
			}
			if collides {
				log.Warn("route leg passes an obstacle",
					"leg", i, "obstacle_x", obs.X, "obstacle_y", obs.Y, "free_dist_m", dist)
			}
		}
		prev = wp.Target
	}
}

func publishStatus(ctx context.Context, server *web.Server) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			server.PublishStatus()
		}
	}
}
