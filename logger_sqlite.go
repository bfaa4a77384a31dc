package hivsim

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	// sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteLogger is a DataLogger that writes one row per step into a
// per-run-instance SQLite table: per-instance table suffixing plus a
// WAL-mode open helper, narrowed to a single Report table.
type SQLiteLogger struct {
	path       string
	instanceID int
	db         *sql.DB
}

// NewSQLiteLogger creates a new logger that writes to a SQLite database.
func NewSQLiteLogger(basepath string, i int) *SQLiteLogger {
	l := new(SQLiteLogger)
	l.SetBasePath(basepath, i)
	return l
}

// SetBasePath sets the base path of the logger for run instance i.
func (l *SQLiteLogger) SetBasePath(basepath string, i int) {
	if info, err := os.Stat(basepath); err == nil && info.IsDir() {
		basepath += fmt.Sprintf("log.%03d", i)
	}
	l.path = strings.TrimSuffix(basepath, ".") + ".report.db"
	l.instanceID = i
}

func (l *SQLiteLogger) tableName() string {
	return fmt.Sprintf("Report%03d", l.instanceID)
}

// Init opens the database (creating the file if needed) and creates this
// run instance's report table.
func (l *SQLiteLogger) Init() error {
	db, err := openSQLiteDBOptimized(l.path)
	if err != nil {
		return err
	}
	l.db = db

	stmt := fmt.Sprintf(`create table %s (
		id integer not null primary key,
		run_id text,
		time int, num_agents int, num_hiv int, num_aids int, num_dx int,
		num_haart int, num_prep int, num_incar int, num_high_risk int,
		num_pwid int, num_relations int, mean_age real, partner_stddev real,
		new_infections int, new_dx int, new_incar_release int,
		new_high_risk int, new_prep int, deaths int
	);`, l.tableName())
	if _, err := l.db.Exec(stmt); err != nil {
		return fmt.Errorf("%q: %s", err, stmt)
	}
	return nil
}

// WriteReportRow inserts one row into this run instance's report table.
func (l *SQLiteLogger) WriteReportRow(row ReportRow) error {
	insert := "insert into " + l.tableName() + ` (
		run_id, time, num_agents, num_hiv, num_aids, num_dx, num_haart, num_prep,
		num_incar, num_high_risk, num_pwid, num_relations, mean_age, partner_stddev,
		new_infections, new_dx, new_incar_release, new_high_risk, new_prep, deaths
	) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := l.db.Exec(insert,
		row.RunID.String(), row.Time, row.NumAgents, row.NumHIV, row.NumAIDS, row.NumDx,
		row.NumHAART, row.NumPrEP, row.NumIncar, row.NumHighRisk,
		row.NumPWID, row.NumRelations, row.MeanAge, row.MeanPartnersStdDev,
		row.NewInfections, row.NewDx, row.NewIncarRelease, row.NewHighRisk, row.NewPrEP, row.Deaths,
	)
	return err
}

// Close closes the underlying database handle.
func (l *SQLiteLogger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// openSQLiteDBOptimized establishes a database connection using WAL
// mode and exclusive locking.
func openSQLiteDBOptimized(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal=WAL&_locking=EXCLUSIVE&_sync=NORMAL", path)
	return sql.Open("sqlite3", dsn)
}
