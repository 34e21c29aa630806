package silver

import (
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"

	"github.com/rdtavares/pokelake/logger"
)

// Main holds the bronze-to-silver job configuration.
type Main struct {
	AWSRegion           string `help:"AWS region for the S3 client."`
	Bucket              string `help:"Bucket holding both the bronze and silver layers."`
	BronzePrefix        string `help:"Key prefix of the bronze layer to read."`
	SilverPrefix        string `help:"Key prefix for silver output."`
	Table               string `help:"Logical table name embedded in output keys and metadata."`
	RunID               string `help:"Run identifier. Generated from the UTC wall clock when empty."`
	FilterIngestionDate string `help:"Optional bronze ingestion_date partition filter (YYYY-MM-DD)."`
	FilterBatchID       string `help:"Optional bronze batch_id partition filter (YYYY_MM_DD_HH)."`
	DryRun              bool   `help:"Print the resolved config and exit."`

	log      logger.Logger
	s3client s3iface.S3API
	nowFn    func() time.Time
}

func NewMain() *Main {
	return &Main{
		AWSRegion:    "sa-east-1",
		BronzePrefix: "bronze/kaggle/pokemon",
		SilverPrefix: "silver/kaggle/pokemon",
		Table:        "pokemon",
		log:          logger.NopLogger,
		nowFn:        time.Now,
	}
}

func (m *Main) Log() logger.Logger {
	return m.log
}

func (m *Main) SetLog(log logger.Logger) {
	m.log = log
}

// Run validates the configuration, builds the S3 client when none was
// injected, and executes the transform.
func (m *Main) Run() error {
	if m.Bucket == "" {
		return errors.New("bucket is required")
	}
	if m.s3client == nil {
		sess, err := session.NewSessionWithOptions(session.Options{
			Config:            aws.Config{Region: aws.String(m.AWSRegion)},
			SharedConfigState: session.SharedConfigEnable,
		})
		if err != nil {
			return errors.Wrap(err, "creating aws session")
		}
		m.s3client = s3.New(sess)
	}
	return m.run(m.nowFn())
}
