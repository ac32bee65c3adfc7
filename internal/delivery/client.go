package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

type Config struct {
	EmailAPIURL    string
	EmailAPIKey    string
	EmailFrom      string
	SMSAPIURL      string
	SMSAPIKey      string
	RequestTimeout time.Duration
	MaxWorkers     int
	JobQueueSize   int
}

// Client fans side-channel deliveries out to a worker pool so the
// notification write path never waits on a provider.
type Client struct {
	emailAPIURL    string
	emailAPIKey    string
	emailFrom      string
	smsAPIURL      string
	smsAPIKey      string
	requestTimeout time.Duration
	logger         *slog.Logger

	httpClient *http.Client
	jobQueue   chan Job
	workerPool chan chan Job
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewClient(config Config, logger *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 5
	}

	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		emailAPIURL:    config.EmailAPIURL,
		emailAPIKey:    config.EmailAPIKey,
		emailFrom:      config.EmailFrom,
		smsAPIURL:      config.SMSAPIURL,
		smsAPIKey:      config.SMSAPIKey,
		requestTimeout: timeout,
		logger:         logger,

		httpClient: &http.Client{Timeout: timeout},
		maxWorkers: maxWorkers,
		jobQueue:   make(chan Job, jobQueueSize),
		workerPool: make(chan chan Job, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	client.startWorkerPool()

	return client
}

func (c *Client) startWorkerPool() {
	c.once.Do(func() {
		for i := 0; i < c.maxWorkers; i++ {
			worker := NewWorker(i, c.workerPool, c.logger)
			worker.Start(c.ctx, &c.wg, c.processJob)
		}

		c.wg.Add(1)
		go c.dispatch()

		c.logger.Info("delivery worker pool started",
			"max_workers", c.maxWorkers,
			"queue_size", cap(c.jobQueue))
	})
}

func (c *Client) dispatch() {
	defer c.wg.Done()

	for {
		select {
		case job := <-c.jobQueue:
			select {
			case jobChannel := <-c.workerPool:
				select {
				case jobChannel <- job:
				case <-c.ctx.Done():
					return
				}
			case <-c.ctx.Done():
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) Shutdown() {
	c.logger.Info("shutting down delivery client")
	c.cancel()
	c.wg.Wait()
	c.logger.Info("delivery client shutdown complete")
}

// EnqueueEmail queues an email delivery. A full queue is reported to the
// caller but treated as a soft failure.
func (c *Client) EnqueueEmail(to, subject, body string) error {
	return c.enqueue(Job{Kind: ChannelEmail, To: to, Subject: subject, Body: body})
}

func (c *Client) EnqueueSMS(to, message string) error {
	return c.enqueue(Job{Kind: ChannelSMS, To: to, Body: message})
}

// Push has no provider wired in yet; deliveries land in the log so the
// call sites stay in place.
func (c *Client) Push(userID, title, body string) error {
	c.logger.Info("push notification",
		"user_id", userID,
		"title", title,
		"body", body)
	return nil
}

func (c *Client) enqueue(job Job) error {
	select {
	case c.jobQueue <- job:
		c.logger.Debug("delivery job queued",
			"kind", job.Kind,
			"to", job.To,
			"queue_length", len(c.jobQueue))
		return nil
	default:
		c.logger.Warn("delivery queue full, dropping job",
			"kind", job.Kind,
			"to", job.To,
			"queue_capacity", cap(c.jobQueue))
		return fmt.Errorf("delivery queue full")
	}
}

func (c *Client) processJob(job Job) {
	var err error
	switch job.Kind {
	case ChannelEmail:
		err = c.sendEmail(job.To, job.Subject, job.Body)
	case ChannelSMS:
		err = c.sendSMS(job.To, job.Body)
	default:
		c.logger.Warn("unknown delivery job kind", "kind", job.Kind)
		return
	}

	if err != nil {
		c.logger.Error("side-channel delivery failed",
			"kind", job.Kind,
			"to", job.To,
			"error", err)
		return
	}

	c.logger.Info("side-channel delivery sent", "kind", job.Kind, "to", job.To)
}

func (c *Client) sendEmail(to, subject, body string) error {
	if c.emailAPIURL == "" {
		return fmt.Errorf("email provider not configured")
	}

	payload := map[string]interface{}{
		"from":    c.emailFrom,
		"to":      to,
		"subject": subject,
		"body":    body,
	}

	return c.post(c.emailAPIURL+"/messages", c.emailAPIKey, payload)
}

func (c *Client) sendSMS(to, message string) error {
	if c.smsAPIURL == "" {
		return fmt.Errorf("sms provider not configured")
	}

	payload := map[string]interface{}{
		"to":      to,
		"message": message,
	}

	return c.post(c.smsAPIURL+"/messages", c.smsAPIKey, payload)
}

func (c *Client) post(url, apiKey string, payload map[string]interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	return nil
}
