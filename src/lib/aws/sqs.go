package aws

import (
	"context"
	"fmt"
	"log"

	"ticketbooth/src/lib"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQSClient is the subset of the SQS API the publisher needs.
type SQSClient interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

func GetSQSClient(ctx context.Context) (*sqs.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("Error loading AWS config: %s\n", err.Error())
		return nil, err
	}
	return sqs.NewFromConfig(cfg), nil
}

type SQSPublisher struct {
	client   SQSClient
	queueUrl *string
}

func NewSQSPublisher(ctx context.Context, client SQSClient, queueName string) (*SQSPublisher, error) {
	out, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(queueName)})
	if err != nil {
		log.Printf("Error resolving queue %s: %s\n", queueName, err.Error())
		return nil, err
	}
	return &SQSPublisher{client: client, queueUrl: out.QueueUrl}, nil
}

func (s *SQSPublisher) Name() string {
	return "sqs"
}

func (s *SQSPublisher) Publish(ctx context.Context, evt lib.ReservationEvent) error {
	body, err := evt.Payload()
	if err != nil {
		return fmt.Errorf("encode %s: %w", evt.Type, err)
	}
	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    s.queueUrl,
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"type": {DataType: aws.String("String"), StringValue: aws.String(string(evt.Type))},
		},
	})
	return err
}

func (s *SQSPublisher) Close() {}
