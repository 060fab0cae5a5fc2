package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoder for image.Decode
	"io"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"

	"gatherly/api/internal/config"
	"gatherly/api/internal/email"
	"gatherly/api/internal/services"
	"gatherly/api/internal/utils"
)

// Task types.
const (
	TypeEmailDelivery     = "email:deliver"
	TypeMediaProcess      = "media:process"
	TypeEnquiryCloseStale = "enquiry:close_stale"
)

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// EmailTaskPayload carries an already-rendered email to the delivery worker.
type EmailTaskPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// MediaTaskPayload identifies one uploaded media object to normalize.
type MediaTaskPayload struct {
	S3Key   string `json:"s3_key"`
	MediaID string `json:"media_id"`
}

// Enqueuer wraps the asynq client behind the interfaces the services layer
// depends on.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueEmail satisfies services.EmailEnqueuer.
func (e *Enqueuer) EnqueueEmail(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(EmailTaskPayload{To: to, Subject: subject, Body: body})
	if err != nil {
		return fmt.Errorf("failed to marshal email task payload: %w", err)
	}
	task := asynq.NewTask(TypeEmailDelivery, payload)
	if _, err := e.client.EnqueueContext(ctx, task, asynq.Queue("default"), asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("failed to enqueue email task: %w", err)
	}
	return nil
}

// EnqueueMediaProcess schedules normalization of a freshly uploaded media object.
func (e *Enqueuer) EnqueueMediaProcess(ctx context.Context, s3Key, mediaID string) error {
	payload, err := json.Marshal(MediaTaskPayload{S3Key: s3Key, MediaID: mediaID})
	if err != nil {
		return fmt.Errorf("failed to marshal media task payload: %w", err)
	}
	task := asynq.NewTask(TypeMediaProcess, payload)
	if _, err := e.client.EnqueueContext(ctx, task, asynq.Queue("media"), asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("failed to enqueue media task: %w", err)
	}
	return nil
}

// EnqueueStaleEnquirySweep kicks off the periodic close-stale loop. The
// handler re-enqueues itself, so this only needs to be called once at startup.
func (e *Enqueuer) EnqueueStaleEnquirySweep(ctx context.Context, delay time.Duration) error {
	task := asynq.NewTask(TypeEnquiryCloseStale, nil)
	if _, err := e.client.EnqueueContext(ctx, task, asynq.Queue("low"), asynq.ProcessIn(delay)); err != nil {
		return fmt.Errorf("failed to enqueue stale enquiry sweep: %w", err)
	}
	return nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg             *config.Config
	emailSender     email.Sender
	supplierService services.ISupplierService
	enquiryService  services.IEnquiryService
	s3Client        *s3.Client
	taskClient      *asynq.Client
}

func NewTaskProcessor(
	cfg *config.Config,
	emailSender email.Sender,
	supplierService services.ISupplierService,
	enquiryService services.IEnquiryService,
	s3Client *s3.Client,
	taskClient *asynq.Client,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:             cfg,
		emailSender:     emailSender,
		supplierService: supplierService,
		enquiryService:  enquiryService,
		s3Client:        s3Client,
		taskClient:      taskClient,
	}
}

// SetupServer configures an Asynq server with all task handlers registered.
// The caller runs it.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"media":    2,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEmailDelivery, processor.HandleEmailDeliveryTask)
	mux.HandleFunc(TypeMediaProcess, processor.HandleMediaProcessTask)
	mux.HandleFunc(TypeEnquiryCloseStale, processor.HandleEnquiryCloseStaleTask)

	return srv, mux
}

// --- Task Handlers ---

func (p *TaskProcessor) HandleEmailDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var payload EmailTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal email task payload: %v: %w", err, asynq.SkipRetry)
	}

	from := p.cfg.SmtpFromAddress
	rawMessage := email.BuildRawMessage(from, []string{payload.To}, payload.Subject, payload.Body)

	if err := p.emailSender.Send(ctx, []string{payload.To}, payload.Subject, rawMessage); err != nil {
		log.Printf("Email delivery failed for %s: %v", payload.To, err)
		return err
	}

	return nil
}

// HandleMediaProcessTask downloads an uploaded media object, enforces the size
// and dimension limits, re-encodes it, and marks the media record processed so
// it starts counting toward the supplier's publish gate.
func (p *TaskProcessor) HandleMediaProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload MediaTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal media task payload: %v: %w", err, asynq.SkipRetry)
	}

	mediaID, err := utils.ParseSixID(payload.MediaID)
	if err != nil {
		log.Printf("Invalid MediaID in media task payload: %s", payload.MediaID)
		return fmt.Errorf("invalid media ID in payload: %w", asynq.SkipRetry)
	}

	getObjectOutput, err := p.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.cfg.AwsS3Bucket),
		Key:    aws.String(payload.S3Key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			log.Printf("S3 object %s not found, likely upload failed or key incorrect.", payload.S3Key)
			return fmt.Errorf("s3 object not found: %w", asynq.SkipRetry)
		}
		return fmt.Errorf("failed to download media from S3: %w", err)
	}
	defer getObjectOutput.Body.Close()

	imgData, err := io.ReadAll(getObjectOutput.Body)
	if err != nil {
		return fmt.Errorf("failed to read media data: %w", err)
	}

	maxSizeBytes := int64(p.cfg.MediaMaxSizeMB) * 1024 * 1024
	if int64(len(imgData)) > maxSizeBytes {
		log.Printf("Media %s exceeds max size (%d > %d bytes). Skipping.", payload.S3Key, len(imgData), maxSizeBytes)
		return fmt.Errorf("media exceeds max size: %w", asynq.SkipRetry)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		log.Printf("Error decoding media %s: %v", payload.S3Key, err)
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}
	log.Printf("Decoded media %s, format: %s, size: %dx%d", payload.S3Key, format, img.Bounds().Dx(), img.Bounds().Dy())

	maxDim := uint(p.cfg.MediaMaxDimension)
	needsResize := uint(img.Bounds().Dx()) > maxDim || uint(img.Bounds().Dy()) > maxDim

	processedData := imgData
	contentType := "image/" + format
	if needsResize {
		resizedImg := resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resizedImg, &jpeg.Options{Quality: 85}); err != nil {
			return fmt.Errorf("failed to re-encode resized media: %w", err)
		}
		processedData = buf.Bytes()
		contentType = "image/jpeg"
		log.Printf("Resized media %s to %dx%d", payload.S3Key, resizedImg.Bounds().Dx(), resizedImg.Bounds().Dy())
	}

	_, err = p.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.AwsS3Bucket),
		Key:         aws.String(payload.S3Key),
		Body:        bytes.NewReader(processedData),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload processed media: %w", err)
	}

	if err := p.supplierService.MarkMediaProcessed(ctx, mediaID); err != nil {
		return fmt.Errorf("failed to mark media %s processed: %w", payload.MediaID, err)
	}

	log.Printf("Media task processed successfully: Key=%s, MediaID=%s", payload.S3Key, payload.MediaID)
	return nil
}

// staleSweepInterval is how often the close-stale loop re-runs.
const staleSweepInterval = 12 * time.Hour

// HandleEnquiryCloseStaleTask closes aged-out enquiries and re-enqueues itself.
func (p *TaskProcessor) HandleEnquiryCloseStaleTask(ctx context.Context, t *asynq.Task) error {
	closed, err := p.enquiryService.CloseStale(ctx, p.cfg.EnquiryStaleAge)
	if err != nil {
		log.Printf("Stale enquiry sweep failed: %v", err)
		return err
	}
	if closed > 0 {
		log.Printf("Stale enquiry sweep closed %d enquiries.", closed)
	}

	next := asynq.NewTask(TypeEnquiryCloseStale, nil)
	if _, err := p.taskClient.EnqueueContext(ctx, next, asynq.Queue("low"), asynq.ProcessIn(staleSweepInterval)); err != nil {
		log.Printf("ERROR failed to re-enqueue stale enquiry sweep: %v", err)
		return err
	}
	return nil
}
