package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/capstone-api/internal/domain"
)

// ProjectRepo provides typed DynamoDB operations for the projects table.
type ProjectRepo struct {
	client    API
	tableName string
}

func NewProjectRepo(client API, tableName string) *ProjectRepo {
	return &ProjectRepo{client: client, tableName: tableName}
}

func (r *ProjectRepo) Put(ctx context.Context, p *domain.Project) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ProjectRepo) Get(ctx context.Context, projectID string) (*domain.Project, error) {
	var p domain.Project
	if err := getItem(ctx, r.client, r.tableName, "project_id", projectID, &p); err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}
	return &p, nil
}

func (r *ProjectRepo) Update(ctx context.Context, projectID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("project_id", projectID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(project_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return mapConditionErr(err, "project")
}

// HardDelete permanently removes a project item.
func (r *ProjectRepo) HardDelete(ctx context.Context, projectID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("project_id", projectID),
		ConditionExpression: aws.String("attribute_exists(project_id)"),
	})
	return mapConditionErr(err, "project")
}
