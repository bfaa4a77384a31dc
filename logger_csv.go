package hivsim

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// DataLogger is the general definition of a logger that records
// per-step population summary statistics, whether it writes a text file
// or writes to a database, narrowed down to the single per-step report
// row this domain produces.
type DataLogger interface {
	// SetBasePath sets the base path of the logger for run instance i.
	SetBasePath(path string, i int)
	// Init initializes the logger: creates a file and writes header
	// information, or creates a database table.
	Init() error
	// WriteReportRow persists one step's summary statistics.
	WriteReportRow(row ReportRow) error
	// Close releases any resources the logger is holding open.
	Close() error
}

// CSVLogger is a DataLogger that writes one row per step to a
// comma-delimited file.
type CSVLogger struct {
	path string
}

// NewCSVLogger creates a new logger that writes data into a CSV file.
func NewCSVLogger(basepath string, i int) *CSVLogger {
	l := new(CSVLogger)
	l.SetBasePath(basepath, i)
	return l
}

// SetBasePath sets the base path of the logger, suffixing it with the run
// instance number.
func (l *CSVLogger) SetBasePath(basepath string, i int) {
	if info, err := os.Stat(basepath); err == nil && info.IsDir() {
		basepath += "log"
	}
	l.path = strings.TrimSuffix(basepath, ".") + fmt.Sprintf(".%03d.report.csv", i)
}

// reportCSVHeader is the fixed column order every row below must match.
const reportCSVHeader = "instance,run_id,time,num_agents,num_hiv,num_aids,num_dx,num_haart,num_prep,num_incar,num_high_risk,num_pwid,num_relations,mean_age,partner_stddev,new_infections,new_dx,new_incar_release,new_high_risk,new_prep,deaths\n"

// Init creates the CSV file and writes its header row.
func (l *CSVLogger) Init() error {
	var b bytes.Buffer
	b.WriteString(reportCSVHeader)
	return newFile(l.path, b.Bytes())
}

// WriteReportRow appends one formatted row to the CSV file.
func (l *CSVLogger) WriteReportRow(row ReportRow) error {
	const template = "%d,%s,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d,%f,%f,%d,%d,%d,%d,%d,%d\n"
	line := fmt.Sprintf(template,
		row.InstanceID, row.RunID.String(), row.Time,
		row.NumAgents, row.NumHIV, row.NumAIDS, row.NumDx, row.NumHAART,
		row.NumPrEP, row.NumIncar, row.NumHighRisk, row.NumPWID, row.NumRelations,
		row.MeanAge, row.MeanPartnersStdDev,
		row.NewInfections, row.NewDx, row.NewIncarRelease, row.NewHighRisk, row.NewPrEP, row.Deaths,
	)
	return appendToFile(l.path, []byte(line))
}

// Close is a no-op for CSVLogger: every write opens and closes its own
// file handle.
func (l *CSVLogger) Close() error {
	return nil
}

// newFile creates a new file on the given path if it does not exist.
// Returns an error if the file already exists: a run must never
// silently overwrite a prior one.
func newFile(path string, b []byte) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(b); err != nil {
		return err
	}
	return f.Sync()
}

// appendToFile creates a new file on the given path if it does not exist,
// or appends to the end of the existing file otherwise.
func appendToFile(path string, b []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(b); err != nil {
		return err
	}
	return f.Sync()
}
