package aws

import (
	"context"
	"encoding/json"
	"log"
	"tms/src/lib"
	"tms/src/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type SNSSubscriber struct {
	Name    string
	handler *types.Handler
	inner   *sns.Client
}

func NewSNSSubscriber(topic string) *SNSSubscriber {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Printf("Error loading default config: %s\n", err.Error())
		return nil
	}
	inner := sns.NewFromConfig(cfg)
	new := SNSSubscriber{
		Name:  topic,
		inner: inner,
	}
	return &new
}

func (s *SNSSubscriber) Subscribe(proto string, endpoint string) (*string, error) {
	topicArn := lib.GetTopicArn(s.Name)
	output, err := s.inner.Subscribe(context.TODO(), &sns.SubscribeInput{
		Protocol: aws.String(proto),
		TopicArn: aws.String(topicArn),
		Endpoint: aws.String(endpoint),
	})
	if err != nil {
		log.Printf("Error subscribing to topic [%s]: %s\n", s.Name, err.Error())
		return nil, err
	}
	return output.SubscriptionArn, nil
}

// SNSPublishNotification fans a notification payload out to the push topic.
func SNSPublishNotification(payload map[string]any) {
	client := lib.AWSGetSNSClient()
	if client == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error serializing notification payload: %s\n", err.Error())
		return
	}
	topicArn := lib.GetTopicArn("NotificationUpdates")
	out, err := client.Publish(context.TODO(), &sns.PublishInput{
		TopicArn: aws.String(topicArn),
		Message:  aws.String(string(body)),
	})
	if err != nil {
		log.Printf("Error publishing to topic: %s\n", err.Error())
		return
	}
	log.Printf("Published notification: %s\n", *out.MessageId)
}
