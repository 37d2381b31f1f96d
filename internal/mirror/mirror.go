// Package mirror copies stored images to the cloud in the background. Uploads
// publish the new image id to a Kafka topic; the worker consumes ids, pulls
// the row back out of storage and pushes the payload to Drive. A lost or
// failed mirror never affects the original upload.
package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"firewatch/internal/models"
)

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(broker, topic string) *Publisher {
	return &Publisher{
		writer: kafka.NewWriter(kafka.WriterConfig{
			Brokers: []string{broker},
			Topic:   topic,
		}),
	}
}

func (p *Publisher) Publish(ctx context.Context, id int64) error {
	return p.writer.WriteMessages(ctx, kafka.Message{Value: []byte(strconv.FormatInt(id, 10))})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

type Store interface {
	FetchOne(ctx context.Context, id int64) (*models.Image, error)
}

type Uploader interface {
	Upload(ctx context.Context, name, mimeType string, payload []byte) (fileID, fileURL string, err error)
}

type Worker struct {
	broker   string
	topic    string
	store    Store
	uploader Uploader
}

func NewWorker(broker, topic string, store Store, uploader Uploader) *Worker {
	return &Worker{broker: broker, topic: topic, store: store, uploader: uploader}
}

// Run consumes ids until the context is cancelled. Per-message failures are
// logged and skipped; the queue is best-effort.
func (w *Worker) Run(ctx context.Context) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{w.broker},
		Topic:   w.topic,
		GroupID: "image-mirror-group",
	})
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("error reading mirror message", "error", err)
			continue
		}
		if err := w.mirrorImage(ctx, string(msg.Value)); err != nil {
			slog.Error("error mirroring image", "error", err)
		}
	}
}

func (w *Worker) mirrorImage(ctx context.Context, idStr string) error {
	const op = "mirror.mirrorImage"

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}

	img, err := w.store.FetchOne(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}

	name := "image-" + uuid.NewString()
	fileID, fileURL, err := w.uploader.Upload(ctx, name, http.DetectContentType(img.Data), img.Data)
	if err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}

	slog.Info("image mirrored", "imageId", id, "fileId", fileID, "fileUrl", fileURL)
	return nil
}
