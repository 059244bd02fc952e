/*
 * Copyright (c) 2025. Anton Starikov -- All Rights Reserved
 *
 * This file is part of THERMOZONE project.
 *
 * THERMOZONE is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as the Free Software Foundation,
 * either version 3 of the License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"thermozone/internal/advisor"
	"thermozone/internal/analytics"
	"thermozone/internal/comp"
	"thermozone/internal/config"
	"thermozone/internal/engine"
	"thermozone/internal/hass"
	"thermozone/internal/ingest"
	"thermozone/internal/llm"
	"thermozone/internal/logger"
	"thermozone/internal/pattern"
	"thermozone/internal/rules"
	"thermozone/internal/schedule"
	"thermozone/internal/store"
	"thermozone/internal/zone"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Controller owns the full wiring: persistence, ingestion, the decision
// engine and its collaborators, and the metrics endpoint.
type Controller struct {
	cfg       *config.Config
	store     *store.Store
	zones     *zone.Manager
	ingestor  *ingest.Ingestor
	engine    *engine.Engine
	miner     *analytics.Miner
	schedules []*schedule.Schedule
	log       *zap.SugaredLogger
}

func NewController() *Controller {
	cfg := config.Get()
	log := logger.Named("controller")

	st := store.Open(expandHome(cfg.DBFile))
	zones := zone.NewManager()

	haClient := hass.NewClient(cfg.HomeAssistant)
	chat := llm.NewClient(cfg.LLM)

	compensator := comp.NewCompensator(zones, st, haClient)
	adv := advisor.New(st, st, haClient, chat)
	ruleEngine := rules.NewEngine()
	ruleEngine.SetbackC = st.FloatSettingWithDefault(context.Background(), store.SettingOccupancySetback, ruleEngine.SetbackC)
	patterns := pattern.NewEngine(st)

	schedules, err := schedulesFromConfig(cfg.Schedules)
	if err != nil {
		log.Panicf("Bad schedule config: %v", err)
	}

	eng := engine.New(
		zones, ruleEngine, adv, compensator,
		haClient, st, st, st,
		patterns, chat, schedules,
	)

	return &Controller{
		cfg:       cfg,
		store:     st,
		zones:     zones,
		ingestor:  ingest.NewIngestor(cfg, zones, st, eng),
		engine:    eng,
		miner:     analytics.NewMiner(st, zones, patterns),
		schedules: schedules,
		log:       log,
	}
}

// Run starts ingestion, the control loop, the analytics miner and the
// metrics endpoint, and blocks until SIGINT or SIGTERM.
func (c *Controller) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.ingestor.Start()
	go c.engine.Run(ctx)
	go c.miner.Run(ctx)
	go c.serveMetrics()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	c.log.Warnf("Got signal %v, shutting down", s)

	cancel()
	c.ingestor.Stop()
	if err := c.store.Close(); err != nil {
		c.log.Errorf("Store close: %v", err)
	}
	logger.Close()
}

func (c *Controller) serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	c.log.Infof("Metrics on %s/metrics", c.cfg.MetricsAddr)
	if err := http.ListenAndServe(c.cfg.MetricsAddr, mux); err != nil {
		c.log.Errorf("Metrics endpoint failed: %v", err)
	}
}

func schedulesFromConfig(cfgs []*config.ScheduleConfig) ([]*schedule.Schedule, error) {
	var out []*schedule.Schedule
	for _, sc := range cfgs {
		s := &schedule.Schedule{ID: sc.Name, ZoneIDs: sc.Zones}
		for _, p := range sc.Periods {
			start, err := schedule.ParseClock(p.Start)
			if err != nil {
				return nil, err
			}
			end, err := schedule.ParseClock(p.End)
			if err != nil {
				return nil, err
			}
			e := schedule.Entry{
				Days:     schedule.DayBucket(p.Days),
				Period:   schedule.Period(p.Period),
				StartMin: start,
				EndMin:   end,
			}
			if p.Heat != nil {
				e.HeatC = *p.Heat
			}
			if p.Cool != nil {
				e.CoolC = *p.Cool
			}
			s.Entries = append(s.Entries, e)
		}
		out = append(out, s)
	}
	return out, nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
