// ABOUTME: Tests for the query builder
// ABOUTME: Verifies chained calls are captured and forwarded to the source
package query

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSource struct {
	last *Builder
}

func (s *recordingSource) Execute(_ context.Context, q *Builder) (*Response, error) {
	s.last = q
	return &Response{Data: json.RawMessage(`[]`)}, nil
}

func TestBuilderCapturesQuery(t *testing.T) {
	src := &recordingSource{}
	client := NewClient(src)

	resp, err := client.From("principal_activity_summary").
		Select("principal_id", "principal_name").
		Or(ILike("principal_name", "%acme%"), ILike("primary_contact_name", "%acme%")).
		In("activity_status", "ACTIVE", "LOW").
		Gte("engagement_score", 10.0).
		Lte("engagement_score", 90.0).
		Order("engagement_score", false).
		Range(20, 39).
		Count().
		Execute(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(resp.Data))

	q := src.last
	require.NotNil(t, q)
	assert.Equal(t, "principal_activity_summary", q.Collection())
	assert.Equal(t, []string{"principal_id", "principal_name"}, q.Fields())
	assert.Len(t, q.Filters(), 3)
	assert.Len(t, q.OrGroups(), 1)
	assert.Equal(t, []Ordering{{Field: "engagement_score", Ascending: false}}, q.Orders())
	assert.True(t, q.WantsCount())
	assert.False(t, q.IsSingle())

	from, to, ok := q.RowRange()
	assert.True(t, ok)
	assert.Equal(t, 20, from)
	assert.Equal(t, 39, to)

	statuses, ok := q.FilterValue("activity_status", OpIn)
	assert.True(t, ok)
	assert.Equal(t, []any{"ACTIVE", "LOW"}, statuses)
}

func TestSelectStarMeansAllFields(t *testing.T) {
	b := NewClient(&recordingSource{}).From("opportunities").Select("id").Select("*")
	assert.Nil(t, b.Fields())
}

func TestExecuteWithoutSource(t *testing.T) {
	_, err := NewClient(nil).From("opportunities").Execute(context.Background())
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestResponseErrorMessage(t *testing.T) {
	var err error = &ResponseError{Code: "42P01", Message: "relation does not exist"}
	assert.EqualError(t, err, "relation does not exist")
}
