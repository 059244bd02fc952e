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

// Package ingest subscribes to the configured zone sensor topics and folds
// readings into the zone manager and the time-series store.
package ingest

import (
	"context"
	"strconv"
	"time"

	"thermozone/internal/config"
	"thermozone/internal/control"
	"thermozone/internal/logger"
	"thermozone/internal/safe_mqtt"
	"thermozone/internal/store"
	"thermozone/internal/zone"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const mqttQoS = 1

// Actions receives the event-driven decisions ingest raises: presence flips
// and operator commands from the control topic.
type Actions interface {
	OccupancyChanged(ctx context.Context, zoneID string, occupied bool)
	UserAction(ctx context.Context, a *control.Action)
}

type Ingestor struct {
	cfg     *config.Config
	mqtt    safe_mqtt.MqttClient
	zones   *zone.Manager
	store   *store.Store
	actions Actions
	log     *zap.SugaredLogger
}

func NewIngestor(cfg *config.Config, zones *zone.Manager, st *store.Store, actions Actions) *Ingestor {
	ing := &Ingestor{
		cfg:     cfg,
		zones:   zones,
		store:   st,
		actions: actions,
		log:     logger.Named("ingest"),
	}
	ing.mqtt = safe_mqtt.InitMQTTClient(cfg.MQTTConfig.URL, "thermozone-ingest-"+uuid.New().String())
	return ing
}

// Start subscribes every configured sensor, registers configured devices and
// attaches the control-topic consumer.
func (i *Ingestor) Start() {
	for zoneID, zcfg := range i.cfg.Zones {
		z := i.zones.Ensure(zoneID, zoneID)
		z.Priority = *zcfg.Priority
		z.Alpha = *zcfg.SmoothingAlpha
		z.Metrics[zone.MetricTargetTemperature] = *zcfg.TargetTemp
		z.Metrics[zone.MetricTargetHumidity] = *zcfg.TargetHumidity

		for _, dcfg := range zcfg.Devices {
			i.zones.RegisterDevice(zoneID, deviceFromConfig(dcfg))
		}

		for _, scfg := range zcfg.Sensors {
			i.subscribe(zoneID, scfg)
		}
	}

	if i.actions != nil && i.cfg.MQTTConfig.ControlTopic != "" {
		i.mqtt.SafeSubscribe(i.cfg.MQTTConfig.ControlTopic, mqttQoS, func(client mqtt.Client, message mqtt.Message) {
			i.handleControl(message.Topic(), message.Payload())
		})
	}
	i.log.Infof("Ingestion started for %d zones", len(i.cfg.Zones))
}

func (i *Ingestor) Stop() {
	i.mqtt.Disconnect()
}

func deviceFromConfig(d *config.DeviceConfig) *zone.DeviceState {
	name := d.Name
	if name == "" {
		name = d.ID
	}
	dev := &zone.DeviceState{
		ID:            d.ID,
		Name:          name,
		Type:          d.Type,
		ControlMethod: d.ControlMethod,
		Capabilities:  d.Capabilities,
		MinTemp:       d.MinTemp,
		MaxTemp:       d.MaxTemp,
	}
	if d.MinOffMinutes != nil {
		dev.MinOffTime = time.Duration(*d.MinOffMinutes) * time.Minute
	}
	return dev
}

func (i *Ingestor) subscribe(zoneID string, scfg *config.SensorConfig) {
	i.mqtt.SafeSubscribe(scfg.Topic, mqttQoS, func(client mqtt.Client, message mqtt.Message) {
		i.handleMessage(zoneID, scfg, message.Topic(), message.Payload())
	})
}

func (i *Ingestor) handleMessage(zoneID string, scfg *config.SensorConfig, topic string, payload []byte) {
	raw, err := ExtractF64PlainOrJSON(payload, topic, scfg.JSONEntry)
	if err != nil {
		i.log.Error(err)
		return
	}
	value := raw*(*scfg.Scale) + (*scfg.Offset)

	now := time.Now()
	z := i.zones.Ensure(zoneID, zoneID)
	rec := &store.Reading{ZoneID: zoneID, TakenAt: now.UTC()}

	switch scfg.Kind {
	case config.SensorTemperature:
		z.ApplyTemperature(value, now)
		rec.Temperature = &value
	case config.SensorHumidity:
		z.ApplyHumidity(value, now)
		rec.Humidity = &value
	case config.SensorPresence:
		occupied := value > 0.5
		// transition check runs before the state absorbs the flip, so the
		// debounce still measures from the previous change
		if i.actions != nil {
			i.actions.OccupancyChanged(context.Background(), zoneID, occupied)
		}
		z.ApplyOccupancy(occupied, now)
		rec.Presence = &occupied
	case config.SensorIlluminance:
		rec.Illuminance = &value
	default:
		i.log.Errorf("Unknown sensor kind `%s` on %s", scfg.Kind, topic)
		return
	}

	i.log.Debugf("Got %s reading for zone %s: %s", scfg.Kind, zoneID, strconv.FormatFloat(value, 'f', -1, 64))

	if err := i.store.InsertReading(context.Background(), rec); err != nil {
		i.log.Error(err)
	}
}
