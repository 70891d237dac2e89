//go:build integration

package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"thingapi/internal/platform/config"
	"thingapi/internal/platform/kafka"
	"thingapi/pkg/testutil/containers"
)

const integrationTopic = "thingapi.information.events.it"

type KafkaSinkSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
	producer *kgo.Client
}

func TestKafkaSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSinkSuite))
}

func (s *KafkaSinkSuite) SetupSuite() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())

	producer, err := kafka.NewProducer(context.Background(), config.KafkaConfig{
		Brokers: s.redpanda.Brokers,
		Topic:   integrationTopic,
	})
	s.Require().NoError(err)
	s.producer = producer
}

func (s *KafkaSinkSuite) TearDownSuite() {
	if s.producer != nil {
		s.producer.Close()
	}
}

func (s *KafkaSinkSuite) TestPublishedEventIsConsumable() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sink := NewKafkaSink(s.producer, integrationTopic)
	s.Require().NoError(sink.Write(ctx, Event{
		Action:    ActionInformationCreated,
		RecordID:  "rec-42",
		Group:     "fruits",
		Timestamp: time.Now().UTC(),
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(integrationTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	var got *kgo.Record
	for got == nil {
		fetches := consumer.PollFetches(ctx)
		s.Require().NoError(ctx.Err(), "timed out waiting for record")
		fetches.EachRecord(func(r *kgo.Record) {
			if string(r.Key) == "rec-42" {
				got = r
			}
		})
	}

	var event Event
	s.Require().NoError(json.Unmarshal(got.Value, &event))
	s.Equal(ActionInformationCreated, event.Action)
	s.Equal("fruits", event.Group)
}
