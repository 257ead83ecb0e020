package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/capstone-api/internal/domain"
)

// TeamRepo provides typed DynamoDB operations for the teams table.
type TeamRepo struct {
	client    API
	tableName string
}

func NewTeamRepo(client API, tableName string) *TeamRepo {
	return &TeamRepo{client: client, tableName: tableName}
}

func (r *TeamRepo) Put(ctx context.Context, t *domain.Team) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal team: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// GetByProject returns the team attached to a project via the project_id GSI.
func (r *TeamRepo) GetByProject(ctx context.Context, projectID string) (*domain.Team, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexTeamsByProject),
		KeyConditionExpression:    aws.String("#p = :p"),
		ExpressionAttributeNames:  map[string]string{"#p": fieldProjectID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":p": strVal(projectID)},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("team for project %s: %w", projectID, domain.ErrNotFound)
	}
	var t domain.Team
	if err := attributevalue.UnmarshalMap(out.Items[0], &t); err != nil {
		return nil, err
	}
	return &t, nil
}
