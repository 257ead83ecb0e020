package dynamo

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/capstone-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateExpr_SingleField(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"name": "Capstone"})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": "name"}, ue.Names)
	_, ok := ue.Values[":v0"]
	assert.True(t, ok)
}

func TestBuildUpdateExpr_MultipleFields_Deterministic(t *testing.T) {
	updates := map[string]interface{}{
		"status":      "Read",
		"description": "x",
		"name":        "Capstone",
	}
	ue1, err := buildUpdateExpr(updates)
	require.NoError(t, err)
	ue2, err := buildUpdateExpr(updates)
	require.NoError(t, err)

	assert.Equal(t, ue1.Expr, ue2.Expr)
	assert.Equal(t, "description", ue1.Names["#f0"])
	assert.Equal(t, "name", ue1.Names["#f1"])
	assert.Equal(t, "status", ue1.Names["#f2"])
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", ue1.Expr)
}

func TestBuildUpdateExpr_ValuesMarshalledCorrectly(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"is_leader": 1})
	require.NoError(t, err)
	n, ok := ue.Values[":v0"].(*types.AttributeValueMemberN)
	require.True(t, ok)
	assert.Equal(t, "1", n.Value)
}

func TestBuildUpdateExpr_EmptyMap_ReturnsError(t *testing.T) {
	_, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func TestNotInExpr(t *testing.T) {
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	expr := notInExpr("status", "st", []string{"Done", "Cancelled"}, names, values)

	assert.Equal(t, "NOT (#st IN (:st0, :st1))", expr)
	assert.Equal(t, "status", names["#st"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "Cancelled"}, values[":st1"])
}

func TestChunk(t *testing.T) {
	assert.Nil(t, chunk(0, 25))
	assert.Equal(t, [][2]int{{0, 25}, {25, 50}, {50, 51}}, chunk(51, 25))
	assert.Equal(t, [][2]int{{0, 3}}, chunk(3, 25))
}

func TestMapConditionErr(t *testing.T) {
	assert.NoError(t, mapConditionErr(nil, "project"))

	err := mapConditionErr(&types.ConditionalCheckFailedException{}, "project")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	other := errors.New("throttled")
	assert.Equal(t, other, mapConditionErr(other, "project"))
}
