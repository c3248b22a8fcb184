package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "bus_schedules", []string{"a", "b"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"bus_schedules"}, []string{"route_label", "operator_name"}).WillReturnResult(2)

	rows := [][]any{{"A to B", "VRL"}, {"A to C", "SRS"}}
	n, err := CopyFrom(context.Background(), mock, "bus_schedules", []string{"route_label", "operator_name"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"bus_schedules"}, []string{"route_label"}).WillReturnError(fmt.Errorf("copy failed"))

	rows := [][]any{{"A to B"}}
	_, err = CopyFrom(context.Background(), mock, "bus_schedules", []string{"route_label"}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO bus_schedules")
	assert.NoError(t, mock.ExpectationsWereMet())
}
