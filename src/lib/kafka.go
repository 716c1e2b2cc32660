package lib

import (
	"context"
	"fmt"
	"log"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

func GetKafkaProducerConfig(broker, clientId string) kafka.ConfigMap {
	return kafka.ConfigMap{
		"bootstrap.servers": broker,
		"client.id":         clientId,
		"acks":              "all",
	}
}

type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaPublisher(broker, topic string) (*KafkaPublisher, error) {
	log.Println("Initializing kafka Producer...")
	cfg := GetKafkaProducerConfig(broker, "ticketbooth")
	p, err := kafka.NewProducer(&cfg)
	if err != nil {
		log.Printf("Error on producer: %s\n", err.Error())
		return nil, err
	}
	kp := &KafkaPublisher{producer: p, topic: topic}
	go kp.drainDeliveryReports()
	return kp, nil
}

func (k *KafkaPublisher) Name() string {
	return "kafka"
}

func (k *KafkaPublisher) Publish(ctx context.Context, evt ReservationEvent) error {
	value, err := evt.Payload()
	if err != nil {
		return fmt.Errorf("encode %s: %w", evt.Type, err)
	}
	return k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &k.topic, Partition: kafka.PartitionAny},
		Key:            evt.Key(),
		Value:          value,
		Headers:        []kafka.Header{{Key: "type", Value: []byte(evt.Type)}},
	}, nil)
}

func (k *KafkaPublisher) Close() {
	if remaining := k.producer.Flush(5000); remaining > 0 {
		log.Printf("[EVENTS] %d kafka messages not delivered before shutdown\n", remaining)
	}
	k.producer.Close()
}

func (k *KafkaPublisher) drainDeliveryReports() {
	for e := range k.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				log.Printf("[EVENTS] Delivery failed: %s\n", ev.TopicPartition.Error.Error())
				EventPublishFailures.WithLabelValues("kafka").Inc()
			}
		case kafka.Error:
			log.Printf("[EVENTS] Kafka error: %s\n", ev.Error())
		}
	}
}
