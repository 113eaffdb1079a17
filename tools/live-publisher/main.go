// live-publisher pushes synthetic live attendance events onto the SQS
// live queue so the dashboard's reconciler can be exercised locally. Every
// few seconds it sends one event, occasionally re-sending the previous one
// to prove the idempotent merge.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"time"

	"attendance.service/internal/config"
	awsutil "attendance.service/pkg/aws"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type liveEvent struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employeeId"`
	EmployeeName   string `json:"employeeName"`
	Type           string `json:"type"`
	Timestamp      string `json:"timestamp"`
	IsLate         bool   `json:"isLate"`
	OrganizationID string `json:"organizationId"`
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Could not load configuration: %v", err)
	}

	awsCfg, err := awsutil.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatalf("unable to load SDK config: %v", err)
	}
	client := sqs.NewFromConfig(awsCfg)

	orgID := cfg.DefaultOrganization
	if orgID == "" {
		orgID = "org-1"
	}

	names := map[string]string{"E1": "Ana Pop", "E2": "Mihai Ionescu", "E3": "Elena Radu"}
	var previous *liveEvent

	log.Printf("Publishing live events to %s for organization %s", cfg.LiveSQSQueueURL, orgID)
	for i := 0; ; i++ {
		ev := previous
		if ev == nil || rand.Intn(5) != 0 {
			empID := fmt.Sprintf("E%d", rand.Intn(3)+1)
			kind := "sign-in"
			if rand.Intn(2) == 0 {
				kind = "sign-out"
			}
			ev = &liveEvent{
				ID:             fmt.Sprintf("live-%d-%d", time.Now().Unix(), i),
				EmployeeID:     empID,
				EmployeeName:   names[empID],
				Type:           kind,
				Timestamp:      time.Now().Format(time.RFC3339),
				IsLate:         kind == "sign-in" && rand.Intn(3) == 0,
				OrganizationID: orgID,
			}
		} else {
			log.Printf("Re-sending event %s to exercise deduplication", ev.ID)
		}

		body, _ := json.Marshal(ev)
		_, err := client.SendMessage(context.Background(), &sqs.SendMessageInput{
			QueueUrl:    aws.String(cfg.LiveSQSQueueURL),
			MessageBody: aws.String(string(body)),
		})
		if err != nil {
			log.Printf("send failed: %v", err)
		} else {
			log.Printf("sent %s %s for %s", ev.Type, ev.ID, ev.EmployeeID)
		}

		previous = ev
		time.Sleep(3 * time.Second)
	}
}
