package tools

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tool name constants for database operations registered with Genkit.
const (
	// QueryDatabaseName is the Genkit tool name for executing SQL.
	QueryDatabaseName = "queryDatabase"
	// ListTablesName is the Genkit tool name for listing benchmark tables.
	ListTablesName = "listTables"
	// DescribeTableName is the Genkit tool name for inspecting a table's columns.
	DescribeTableName = "describeTable"
)

// toolSchema is the only PostgreSQL schema the database tools may touch.
// Every statement runs in a transaction whose search_path is pinned here.
const toolSchema = "ai"

// MaxQueryLength is the maximum allowed SQL statement size in bytes.
const MaxQueryLength = 10_000

// MaxQueryRows caps the number of rows returned to the model.
// Larger result sets are truncated, not rejected.
const MaxQueryRows = 100

// statementTimeout bounds a single tool statement server-side.
const statementTimeout = "10s"

// QueryDatabaseInput defines input for the queryDatabase tool.
type QueryDatabaseInput struct {
	Query string `json:"query" jsonschema_description:"A single SQL statement to execute against the benchmark schema"`
}

// ListTablesInput defines input for the listTables tool (no input needed).
type ListTablesInput struct{}

// DescribeTableInput defines input for the describeTable tool.
type DescribeTableInput struct {
	Table string `json:"table" jsonschema_description:"Name of the table to describe (e.g. 'motivational_standards')"`
}

// Postgres holds dependencies for database tool handlers.
// Use NewPostgres to create an instance, then either call methods directly
// (for MCP) or use RegisterPostgres to register with Genkit.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres creates a Postgres tool instance.
func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) (*Postgres, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Postgres{pool: pool, logger: logger}, nil
}

// RegisterPostgres registers all database tools with Genkit.
// Tools are registered with event emission wrappers for streaming support.
func RegisterPostgres(g *genkit.Genkit, pt *Postgres) ([]ai.Tool, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if pt == nil {
		return nil, fmt.Errorf("Postgres is required")
	}

	return []ai.Tool{
		genkit.DefineTool(g, QueryDatabaseName,
			"Execute a single SQL statement against the swimming benchmark database. "+
				"The statement runs inside the 'ai' schema, which holds "+
				"motivational_standards (event, age_group, gender, course, standard, time_seconds). "+
				"Returns: column names, rows (at most 100), row count, and a truncation flag. "+
				"Use this to: look up time standards, compare times against cuts, aggregate benchmark data. "+
				"Security: one statement per call; other schemas are not reachable.",
			WithEvents(QueryDatabaseName, pt.QueryDatabase)),
		genkit.DefineTool(g, ListTablesName,
			"List the tables available in the benchmark schema. "+
				"Returns: table names. "+
				"Use this before writing queries against unfamiliar data.",
			WithEvents(ListTablesName, pt.ListTables)),
		genkit.DefineTool(g, DescribeTableName,
			"Describe the columns of a benchmark table. "+
				"Returns: column names, data types, nullability, and defaults in ordinal order. "+
				"Use this to: check exact column names and types before querying.",
			WithEvents(DescribeTableName, pt.DescribeTable)),
	}, nil
}

// identPattern matches a plain PostgreSQL identifier (no quoting, no dots).
var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// maxIdentLength is the PostgreSQL identifier length limit.
const maxIdentLength = 63

// containsMultipleStatements reports whether q holds a second SQL statement
// after a terminating semicolon. Semicolons inside single-quoted literals and
// quoted identifiers are ignored; dollar-quoted bodies are not recognized and
// get rejected, which errs on the safe side.
func containsMultipleStatements(q string) bool {
	inSingle, inDouble := false, false
	for i := 0; i < len(q); i++ {
		c := q[i]
		switch {
		case inSingle:
			if c == '\'' {
				// '' escapes a quote inside the literal
				if i+1 < len(q) && q[i+1] == '\'' {
					i++
					continue
				}
				inSingle = false
			}
		case inDouble:
			if c == '"' {
				inDouble = false
			}
		case c == '\'':
			inSingle = true
		case c == '"':
			inDouble = true
		case c == ';':
			rest := strings.TrimSpace(q[i+1:])
			return rest != ""
		}
	}
	return false
}

// QueryDatabase executes one SQL statement inside a transaction pinned to the
// benchmark schema. Business errors (bad SQL, truncation-worthy input) are
// returned in Result.Error; only context cancellation returns a Go error.
func (p *Postgres) QueryDatabase(ctx *ai.ToolContext, input QueryDatabaseInput) (Result, error) {
	p.logger.Debug("QueryDatabase called", "query_length", len(input.Query))

	query := strings.TrimSpace(input.Query)
	if query == "" {
		return Result{
			Status: StatusError,
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: "query is required",
			},
		}, nil
	}
	if len(query) > MaxQueryLength {
		return Result{
			Status: StatusError,
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: fmt.Sprintf("query length %d exceeds maximum %d bytes", len(query), MaxQueryLength),
			},
		}, nil
	}
	if containsMultipleStatements(query) {
		p.logger.Warn("QueryDatabase multi-statement input rejected")
		return Result{
			Status: StatusError,
			Error: &Error{
				Code:    ErrCodeSecurity,
				Message: "only a single SQL statement is allowed per call",
			},
		}, nil
	}

	execCtx := ctx.Context
	if execCtx == nil {
		execCtx = context.Background()
	}

	columns, rows, truncated, err := p.runInSchema(execCtx, query)
	if err != nil {
		// Context cancellation is infrastructure, not a model-correctable error
		if execCtx.Err() != nil {
			return Result{}, fmt.Errorf("query canceled: %w", execCtx.Err())
		}

		p.logger.Warn("QueryDatabase failed", "error", err)
		return Result{
			Status: StatusError,
			Error: &Error{
				Code:    ErrCodeExecution,
				Message: fmt.Sprintf("executing query: %v", err),
			},
		}, nil
	}

	p.logger.Debug("QueryDatabase succeeded", "row_count", len(rows), "truncated", truncated)
	return Result{
		Status: StatusSuccess,
		Data: map[string]any{
			"columns":   columns,
			"rows":      rows,
			"row_count": len(rows),
			"truncated": truncated,
		},
	}, nil
}

// runInSchema executes query in a transaction with search_path pinned to the
// benchmark schema and a server-side statement timeout. Returns at most
// MaxQueryRows rows; truncated reports whether more were available.
func (p *Postgres) runInSchema(ctx context.Context, query string) (columns []string, rows []map[string]any, truncated bool, err error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, nil, false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			p.logger.Debug("transaction rollback (may be already committed)", "error", rbErr)
		}
	}()

	// SET LOCAL scopes both settings to this transaction only.
	if _, err := tx.Exec(ctx, "SET LOCAL search_path TO "+toolSchema); err != nil {
		return nil, nil, false, fmt.Errorf("pinning search_path: %w", err)
	}
	if _, err := tx.Exec(ctx, "SET LOCAL statement_timeout = '"+statementTimeout+"'"); err != nil {
		return nil, nil, false, fmt.Errorf("setting statement timeout: %w", err)
	}

	pgRows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, nil, false, err
	}

	for _, fd := range pgRows.FieldDescriptions() {
		columns = append(columns, fd.Name)
	}

	rows = make([]map[string]any, 0, 16)
	for pgRows.Next() {
		if len(rows) >= MaxQueryRows {
			truncated = true
			break
		}
		values, valErr := pgRows.Values()
		if valErr != nil {
			pgRows.Close()
			return nil, nil, false, fmt.Errorf("reading row %d: %w", len(rows), valErr)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		rows = append(rows, row)
	}
	pgRows.Close()
	if err := pgRows.Err(); err != nil {
		return nil, nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, false, fmt.Errorf("commit transaction: %w", err)
	}
	return columns, rows, truncated, nil
}

// ListTables lists the tables in the benchmark schema.
func (p *Postgres) ListTables(ctx *ai.ToolContext, _ ListTablesInput) (Result, error) {
	p.logger.Debug("ListTables called")

	execCtx := ctx.Context
	if execCtx == nil {
		execCtx = context.Background()
	}

	pgRows, err := p.pool.Query(execCtx,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = $1 ORDER BY table_name`, toolSchema)
	if err != nil {
		if execCtx.Err() != nil {
			return Result{}, fmt.Errorf("listing tables canceled: %w", execCtx.Err())
		}
		p.logger.Warn("ListTables failed", "error", err)
		return Result{
			Status: StatusError,
			Error: &Error{
				Code:    ErrCodeExecution,
				Message: fmt.Sprintf("listing tables: %v", err),
			},
		}, nil
	}
	defer pgRows.Close()

	tables := make([]string, 0, 8)
	for pgRows.Next() {
		var name string
		if err := pgRows.Scan(&name); err != nil {
			return Result{
				Status: StatusError,
				Error: &Error{
					Code:    ErrCodeExecution,
					Message: fmt.Sprintf("reading table name: %v", err),
				},
			}, nil
		}
		tables = append(tables, name)
	}
	if err := pgRows.Err(); err != nil {
		return Result{
			Status: StatusError,
			Error: &Error{
				Code:    ErrCodeExecution,
				Message: fmt.Sprintf("listing tables: %v", err),
			},
		}, nil
	}

	p.logger.Debug("ListTables succeeded", "count", len(tables))
	return Result{
		Status: StatusSuccess,
		Data: map[string]any{
			"schema": toolSchema,
			"tables": tables,
			"count":  len(tables),
		},
	}, nil
}

// DescribeTable returns column metadata for one benchmark table.
func (p *Postgres) DescribeTable(ctx *ai.ToolContext, input DescribeTableInput) (Result, error) {
	p.logger.Debug("DescribeTable called", "table", input.Table)

	table := strings.TrimSpace(input.Table)
	if table == "" {
		return Result{
			Status: StatusError,
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: "table name is required",
			},
		}, nil
	}
	if len(table) > maxIdentLength || !identPattern.MatchString(table) {
		p.logger.Warn("DescribeTable invalid identifier rejected", "table", input.Table)
		return Result{
			Status: StatusError,
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: "table name must be a plain identifier (letters, digits, underscores)",
			},
		}, nil
	}

	execCtx := ctx.Context
	if execCtx == nil {
		execCtx = context.Background()
	}

	pgRows, err := p.pool.Query(execCtx,
		`SELECT column_name, data_type, is_nullable, COALESCE(column_default, '')
		 FROM information_schema.columns
		 WHERE table_schema = $1 AND table_name = $2
		 ORDER BY ordinal_position`, toolSchema, table)
	if err != nil {
		if execCtx.Err() != nil {
			return Result{}, fmt.Errorf("describing table canceled: %w", execCtx.Err())
		}
		p.logger.Warn("DescribeTable failed", "table", table, "error", err)
		return Result{
			Status: StatusError,
			Error: &Error{
				Code:    ErrCodeExecution,
				Message: fmt.Sprintf("describing table: %v", err),
			},
		}, nil
	}
	defer pgRows.Close()

	type column struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		Nullable string `json:"nullable"`
		Default  string `json:"default,omitempty"`
	}
	columnList := make([]column, 0, 8)
	for pgRows.Next() {
		var col column
		if err := pgRows.Scan(&col.Name, &col.Type, &col.Nullable, &col.Default); err != nil {
			return Result{
				Status: StatusError,
				Error: &Error{
					Code:    ErrCodeExecution,
					Message: fmt.Sprintf("reading column metadata: %v", err),
				},
			}, nil
		}
		columnList = append(columnList, col)
	}
	if err := pgRows.Err(); err != nil {
		return Result{
			Status: StatusError,
			Error: &Error{
				Code:    ErrCodeExecution,
				Message: fmt.Sprintf("describing table: %v", err),
			},
		}, nil
	}

	if len(columnList) == 0 {
		return Result{
			Status: StatusError,
			Error: &Error{
				Code:    ErrCodeNotFound,
				Message: fmt.Sprintf("table %q not found in schema %q", table, toolSchema),
			},
		}, nil
	}

	p.logger.Debug("DescribeTable succeeded", "table", table, "columns", len(columnList))
	return Result{
		Status: StatusSuccess,
		Data: map[string]any{
			"schema":  toolSchema,
			"table":   table,
			"columns": columnList,
		},
	}, nil
}
