package bronze

import (
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/redshiftdataapiservice"
	"github.com/aws/aws-sdk-go/service/redshiftdataapiservice/redshiftdataapiserviceiface"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"

	"github.com/rdtavares/pokelake/catalog"
	"github.com/rdtavares/pokelake/internal"
	"github.com/rdtavares/pokelake/logger"
)

// Main holds the raw-to-bronze job configuration. Fields are loaded from
// flags and environment variables by commandeer in cmd/pokelake-bronze.
type Main struct {
	catalog.Config `flag:"!embed"`

	AWSRegion    string `help:"AWS region for the S3 and Redshift Data API clients."`
	RawBucket    string `help:"Bucket holding the raw layer."`
	RawPrefix    string `help:"Key prefix of the raw objects to ingest."`
	BronzeBucket string `help:"Bucket receiving bronze output. Defaults to the raw bucket."`
	BronzePrefix string `help:"Key prefix for bronze output."`
	Table        string `help:"Logical table name embedded in output keys and metadata."`
	RunID        string `help:"Run identifier. Generated from the UTC wall clock when empty."`
	CSVDelimiter string `help:"Explicit CSV delimiter. Sniffed per source file when empty."`
	CSVEncoding  string `help:"Explicit CSV encoding (utf-8, latin1, windows-1252). Defaults to utf-8."`
	CreateBucket bool   `help:"Create the bronze bucket if it does not exist. Dev convenience only."`
	DryRun       bool   `help:"Print the resolved config and exit."`

	log      logger.Logger
	s3client s3iface.S3API
	rsclient redshiftdataapiserviceiface.RedshiftDataAPIServiceAPI
	nowFn    func() time.Time
}

func NewMain() *Main {
	return &Main{
		Config: catalog.Config{
			Database:       "dev",
			ExternalSchema: "spectrum",
			GlueDatabase:   "dl_catalog",
			SQLDir:         "sql/redshift/externals",
		},
		AWSRegion:    "sa-east-1",
		RawPrefix:    "raw/kaggle/pokemon-dataset",
		BronzePrefix: "bronze/kaggle/pokemon",
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

// Run validates the configuration, builds the AWS clients when none were
// injected, and executes the ingestion.
func (m *Main) Run() error {
	if m.RawBucket == "" {
		return errors.New("raw bucket is required")
	}
	if m.BronzeBucket == "" {
		m.BronzeBucket = m.RawBucket
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
		if m.Config.Enabled() {
			m.rsclient = redshiftdataapiservice.New(sess)
		}
	}
	if m.CreateBucket {
		if err := internal.EnsureBucket(m.s3client, m.BronzeBucket, m.AWSRegion); err != nil {
			return err
		}
	}
	return m.run(m.nowFn())
}
