package delivery_test

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/gleeworld/gleeworld/internal/delivery"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestDeliveryClient(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Delivery Client Suite")
}

var _ = Describe("Client", func() {
	var logger *slog.Logger

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	})

	newClient := func(queueSize int) *delivery.Client {
		return delivery.NewClient(delivery.Config{
			RequestTimeout: time.Second,
			MaxWorkers:     1,
			JobQueueSize:   queueSize,
		}, logger)
	}

	Describe("Shutdown", func() {
		It("should return even when called right after construction", func(ctx SpecContext) {
			client := newClient(2)

			done := make(chan struct{})
			go func() {
				client.Shutdown()
				close(done)
			}()
			Eventually(done).Should(BeClosed())
		}, SpecTimeout(5*time.Second))
	})

	Describe("enqueue", func() {
		It("should accept jobs while capacity remains", func() {
			client := newClient(2)
			defer client.Shutdown()

			Expect(client.EnqueueEmail("alto@gleeworld.org", "Dues", "Pay up")).To(Succeed())
		})

		It("should report a full queue as a soft failure", func() {
			client := newClient(2)
			client.Shutdown()

			Expect(client.EnqueueEmail("a@gleeworld.org", "One", "x")).To(Succeed())
			Expect(client.EnqueueSMS("+15551234567", "Two")).To(Succeed())
			Expect(client.EnqueueEmail("c@gleeworld.org", "Three", "x")).To(HaveOccurred())
		})
	})

	Describe("Push", func() {
		It("should log and succeed without a provider", func() {
			client := newClient(2)
			defer client.Shutdown()

			Expect(client.Push("u-1", "Task assigned", "Fold robes")).To(Succeed())
		})
	})
})
