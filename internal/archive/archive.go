package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"medisync/internal/model"
)

// Archiver stores a snapshot of a patient's stay when they are discharged.
type Archiver interface {
	ArchiveDischarge(ctx context.Context, patient model.Patient, tasks []model.Task) error
}

// Nop is used when no archive bucket is configured.
type Nop struct{}

// ArchiveDischarge does nothing.
func (Nop) ArchiveDischarge(context.Context, model.Patient, []model.Task) error { return nil }

// S3API is the subset of the S3 client the archiver uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// SQSAPI is the subset of the SQS client the archiver uses.
type SQSAPI interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Record is the archived document.
type Record struct {
	Patient      model.Patient `json:"patient"`
	Tasks        []model.Task  `json:"tasks"`
	DischargedAt time.Time     `json:"discharged_at"`
}

// Notice is the SQS message announcing a new archive object.
type Notice struct {
	Bucket       string    `json:"bucket"`
	Key          string    `json:"key"`
	PatientID    string    `json:"patient_id"`
	DischargedAt time.Time `json:"discharged_at"`
}

// S3Archiver uploads discharge records to S3 and announces them on SQS.
type S3Archiver struct {
	s3     S3API
	sqs    SQSAPI
	bucket string
	queue  string
	now    func() time.Time

	mu       sync.Mutex
	queueURL string
}

// NewS3Archiver builds clients from the default AWS configuration chain.
func NewS3Archiver(ctx context.Context, bucket, queue string) (*S3Archiver, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	s3Client := s3.New(s3.Options{
		Region:       cfg.Region,
		Credentials:  cfg.Credentials,
		HTTPClient:   cfg.HTTPClient,
		BaseEndpoint: cfg.BaseEndpoint,
		UsePathStyle: true,
	})

	sqsClient := sqs.New(sqs.Options{
		Region:       cfg.Region,
		Credentials:  cfg.Credentials,
		HTTPClient:   cfg.HTTPClient,
		BaseEndpoint: cfg.BaseEndpoint,
	})

	return NewS3ArchiverWithClients(s3Client, sqsClient, bucket, queue), nil
}

// NewS3ArchiverWithClients allows injecting test clients. An empty queue skips the notice.
func NewS3ArchiverWithClients(s3Client S3API, sqsClient SQSAPI, bucket, queue string) *S3Archiver {
	return &S3Archiver{
		s3:     s3Client,
		sqs:    sqsClient,
		bucket: bucket,
		queue:  queue,
		now:    time.Now,
	}
}

// Key returns the object key for a discharge at t.
func Key(patientID string, t time.Time) string {
	return fmt.Sprintf("discharges/%s_%s.json", patientID, t.Format("20060102_150405"))
}

// ArchiveDischarge uploads the record, then sends the notice.
func (a *S3Archiver) ArchiveDischarge(ctx context.Context, patient model.Patient, tasks []model.Task) error {
	dischargedAt := a.now().UTC()
	if tasks == nil {
		tasks = []model.Task{}
	}
	body, err := json.Marshal(Record{Patient: patient, Tasks: tasks, DischargedAt: dischargedAt})
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	key := Key(patient.ID, dischargedAt)
	if _, err := a.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		ACL:         types.ObjectCannedACLPrivate,
	}); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}

	if a.queue == "" {
		return nil
	}
	queueURL, err := a.resolveQueue(ctx)
	if err != nil {
		return err
	}
	notice, err := json.Marshal(Notice{Bucket: a.bucket, Key: key, PatientID: patient.ID, DischargedAt: dischargedAt})
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}
	if _, err := a.sqs.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(string(notice)),
	}); err != nil {
		return fmt.Errorf("send notice: %w", err)
	}
	return nil
}

func (a *S3Archiver) resolveQueue(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.queueURL != "" {
		return a.queueURL, nil
	}
	resp, err := a.sqs.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(a.queue)})
	if err != nil {
		return "", fmt.Errorf("get queue url %s: %w", a.queue, err)
	}
	a.queueURL = aws.ToString(resp.QueueUrl)
	return a.queueURL, nil
}
