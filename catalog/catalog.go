// Package catalog registers the bronze layer as an external table in the
// warehouse catalog (Redshift Spectrum over the Glue catalog), using the
// Redshift Data API. Registration is optional: when the required
// identifiers are missing the whole step is skipped, never failed.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/redshiftdataapiservice"
	"github.com/aws/aws-sdk-go/service/redshiftdataapiservice/redshiftdataapiserviceiface"
	"github.com/pkg/errors"

	"github.com/rdtavares/pokelake/logger"
)

// Template files looked up under Config.SQLDir.
const (
	createSchemaSQL = "create_external_schema.sql"
	createTableSQL  = "create_external_table.sql"
	addPartitionSQL = "add_partition.sql"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultPollTimeout  = 5 * time.Minute
)

// Config carries the catalog settings. Fields double as commandeer
// flags when embedded in a job's Main.
type Config struct {
	EnableDDLs     bool   `help:"Register the bronze location in the external catalog after ingestion."`
	Database       string `help:"Redshift database to issue DDLs against."`
	Workgroup      string `help:"Redshift Serverless workgroup name. Mutually acceptable with cluster-id."`
	ClusterID      string `help:"Provisioned Redshift cluster identifier. Mutually acceptable with workgroup."`
	SecretARN      string `help:"Secrets Manager ARN for Data API auth. Empty means IAM-based auth."`
	ExternalSchema string `help:"External schema name to create/use."`
	GlueDatabase   string `help:"Glue catalog database backing the external schema."`
	IAMRoleARN     string `help:"IAM role assumed by Redshift to read the bronze location."`
	SQLDir         string `help:"Directory holding the templated DDL files."`
}

// Enabled reports whether registration should run: it requires the
// feature toggle, a role, and one of the two compute identifiers.
func (c Config) Enabled() bool {
	return c.EnableDDLs && c.IAMRoleARN != "" && (c.Workgroup != "" || c.ClusterID != "")
}

// SkipReason explains why registration will not run. Empty when Enabled.
func (c Config) SkipReason() string {
	switch {
	case !c.EnableDDLs:
		return "DDLs disabled"
	case c.IAMRoleARN == "":
		return "no IAM role configured"
	case c.Workgroup == "" && c.ClusterID == "":
		return "neither workgroup nor cluster id configured"
	}
	return ""
}

// Registrar issues the templated DDL statements.
type Registrar struct {
	cfg    Config
	client redshiftdataapiserviceiface.RedshiftDataAPIServiceAPI
	log    logger.Logger

	pollInterval time.Duration
	pollTimeout  time.Duration
}

func NewRegistrar(cfg Config, client redshiftdataapiserviceiface.RedshiftDataAPIServiceAPI, log logger.Logger) *Registrar {
	if log == nil {
		log = logger.NopLogger
	}
	return &Registrar{
		cfg:          cfg,
		client:       client,
		log:          log,
		pollInterval: defaultPollInterval,
		pollTimeout:  defaultPollTimeout,
	}
}

// RegisterPartition creates the external schema and table if needed and
// adds the (ingestion_date, batch_id) partition pointing at the bronze
// location. Any failed or aborted statement is fatal for the run.
func (r *Registrar) RegisterPartition(table, bronzeLocation, ingestionDate, batchID string) error {
	params := map[string]string{
		"EXTERNAL_SCHEMA": r.cfg.ExternalSchema,
		"GLUE_DATABASE":   r.cfg.GlueDatabase,
		"IAM_ROLE_ARN":    r.cfg.IAMRoleARN,
		"TABLE_NAME":      table,
		"BRONZE_LOCATION": bronzeLocation,
		"INGESTION_DATE":  ingestionDate,
		"BATCH_ID":        batchID,
	}

	if err := r.executeTemplate(createSchemaSQL, params); err != nil {
		return err
	}

	exists, err := r.tableExists(table)
	if err != nil {
		return err
	}
	if exists {
		r.log.Debugf("external table %s.%s already registered", r.cfg.ExternalSchema, table)
	} else if err := r.executeTemplate(createTableSQL, params); err != nil {
		return err
	}

	if err := r.executeTemplate(addPartitionSQL, params); err != nil {
		return err
	}
	r.log.Printf("catalog: registered partition (ingestion_date=%s, batch_id=%s) for %s.%s",
		ingestionDate, batchID, r.cfg.ExternalSchema, table)
	return nil
}

func (r *Registrar) executeTemplate(name string, params map[string]string) error {
	raw, err := os.ReadFile(filepath.Join(r.cfg.SQLDir, name))
	if err != nil {
		return errors.Wrapf(err, "reading sql template %s", name)
	}
	sqlText := RenderTemplate(string(raw), params)
	if _, err := r.execute(sqlText); err != nil {
		return errors.Wrapf(err, "executing %s", name)
	}
	return nil
}

// RenderTemplate substitutes {NAME} placeholder tokens in a SQL template.
func RenderTemplate(text string, params map[string]string) string {
	for name, value := range params {
		text = strings.ReplaceAll(text, "{"+name+"}", value)
	}
	return text
}

func (r *Registrar) tableExists(table string) (bool, error) {
	sqlText := fmt.Sprintf(
		"SELECT tablename FROM svv_external_tables WHERE schemaname = '%s' AND tablename = '%s';",
		r.cfg.ExternalSchema, table)
	id, err := r.execute(sqlText)
	if err != nil {
		return false, errors.Wrap(err, "checking external table existence")
	}
	result, err := r.client.GetStatementResult(&redshiftdataapiservice.GetStatementResultInput{
		Id: aws.String(id),
	})
	if err != nil {
		return false, errors.Wrap(err, "fetching existence check result")
	}
	return aws.Int64Value(result.TotalNumRows) > 0, nil
}

// execute submits one statement and blocks until it reaches a terminal
// status, returning the statement id.
func (r *Registrar) execute(sqlText string) (string, error) {
	input := &redshiftdataapiservice.ExecuteStatementInput{
		Database: aws.String(r.cfg.Database),
		Sql:      aws.String(sqlText),
	}
	if r.cfg.Workgroup != "" {
		input.WorkgroupName = aws.String(r.cfg.Workgroup)
	} else {
		input.ClusterIdentifier = aws.String(r.cfg.ClusterID)
	}
	if r.cfg.SecretARN != "" {
		input.SecretArn = aws.String(r.cfg.SecretARN)
	}

	out, err := r.client.ExecuteStatement(input)
	if err != nil {
		return "", errors.Wrap(err, "submitting statement")
	}
	id := aws.StringValue(out.Id)
	if err := r.waitForStatement(id); err != nil {
		return "", err
	}
	return id, nil
}

func (r *Registrar) waitForStatement(id string) error {
	deadline := time.Now().Add(r.pollTimeout)
	for {
		out, err := r.client.DescribeStatement(&redshiftdataapiservice.DescribeStatementInput{
			Id: aws.String(id),
		})
		if err != nil {
			return errors.Wrapf(err, "describing statement %s", id)
		}
		switch status := aws.StringValue(out.Status); status {
		case redshiftdataapiservice.StatusStringFinished:
			return nil
		case redshiftdataapiservice.StatusStringFailed, redshiftdataapiservice.StatusStringAborted:
			return errors.Errorf("statement %s reached status %s: %s",
				id, status, aws.StringValue(out.Error))
		}
		if time.Now().After(deadline) {
			return errors.Errorf("timed out after %s waiting for statement %s", r.pollTimeout, id)
		}
		time.Sleep(r.pollInterval)
	}
}
