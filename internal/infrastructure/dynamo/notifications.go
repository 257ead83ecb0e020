package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/capstone-api/internal/domain"
)

// maxUnprocessedRetries bounds re-submission of BatchWriteItem leftovers.
const maxUnprocessedRetries = 3

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    API
	tableName string
}

func NewNotificationRepo(client API, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

func (r *NotificationRepo) Put(ctx context.Context, n *domain.Notification) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// PutBatch writes notifications with BatchWriteItem, 25 per request.
func (r *NotificationRepo) PutBatch(ctx context.Context, ns []domain.Notification) error {
	reqs := make([]types.WriteRequest, 0, len(ns))
	for i := range ns {
		item, err := attributevalue.MarshalMap(&ns[i])
		if err != nil {
			return fmt.Errorf("marshal notification: %w", err)
		}
		reqs = append(reqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}
	return r.batchWrite(ctx, reqs)
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	var n domain.Notification
	if err := getItem(ctx, r.client, r.tableName, "notification_id", notificationID, &n); err != nil {
		return nil, fmt.Errorf("notification %s: %w", notificationID, err)
	}
	return &n, nil
}

// ListByRecipient queries the recipient GSI newest first, optionally keeping
// only Unread items.
func (r *NotificationRepo) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]domain.Notification, error) {
	in := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexNotificationsByUser),
		KeyConditionExpression:    aws.String("#r = :r"),
		ExpressionAttributeNames:  map[string]string{"#r": fieldRecipientID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":r": strVal(recipientID)},
		ScanIndexForward:          aws.Bool(false),
	}
	if unreadOnly {
		in.FilterExpression = aws.String("#s = :unread")
		in.ExpressionAttributeNames["#s"] = fieldStatus
		in.ExpressionAttributeValues[":unread"] = strVal(string(domain.NotificationUnread))
	}

	var out []domain.Notification
	p := dynamodb.NewQueryPaginator(r.client, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var ns []domain.Notification
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &ns); err != nil {
			return nil, err
		}
		out = append(out, ns...)
	}
	return out, nil
}

// CountUnread counts a recipient's Unread notifications without fetching them.
func (r *NotificationRepo) CountUnread(ctx context.Context, recipientID string) (int, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexNotificationsByUser),
		KeyConditionExpression: aws.String("#r = :r"),
		FilterExpression:       aws.String("#s = :unread"),
		ExpressionAttributeNames: map[string]string{
			"#r": fieldRecipientID,
			"#s": fieldStatus,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":r":      strVal(recipientID),
			":unread": strVal(string(domain.NotificationUnread)),
		},
		Select: types.SelectCount,
	}
	total := 0
	p := dynamodb.NewQueryPaginator(r.client, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		total += int(page.Count)
	}
	return total, nil
}

// HasRecentUnread reports whether an Unread notification with the given action
// exists for the task with created_at after since.
func (r *NotificationRepo) HasRecentUnread(ctx context.Context, taskID, action string, since time.Time) (bool, error) {
	p := dynamodb.NewQueryPaginator(r.client, recentUnreadQuery(r.tableName, taskID, action, since))
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return false, err
		}
		if page.Count > 0 {
			return true, nil
		}
	}
	return false, nil
}

func recentUnreadQuery(table, taskID, action string, since time.Time) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              aws.String(table),
		IndexName:              aws.String(indexNotificationsByTask),
		KeyConditionExpression: aws.String("#t = :t AND #c > :since"),
		FilterExpression:       aws.String("#a = :a AND #s = :unread"),
		ExpressionAttributeNames: map[string]string{
			"#t": fieldTaskID,
			"#c": fieldCreatedAt,
			"#a": fieldAction,
			"#s": fieldStatus,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":      strVal(taskID),
			":since":  unixVal(since),
			":a":      strVal(action),
			":unread": strVal(string(domain.NotificationUnread)),
		},
		Select: types.SelectCount,
	}
}

func (r *NotificationRepo) MarkAsRead(ctx context.Context, notificationID string, at time.Time) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldStatus: string(domain.NotificationRead),
		fieldReadAt: at.UTC(),
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("notification_id", notificationID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(notification_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return mapConditionErr(err, "notification")
}

func (r *NotificationRepo) Delete(ctx context.Context, notificationID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("notification_id", notificationID),
		ConditionExpression: aws.String("attribute_exists(notification_id)"),
	})
	return mapConditionErr(err, "notification")
}

// DeleteMany removes the given notifications in batches.
func (r *NotificationRepo) DeleteMany(ctx context.Context, notificationIDs []string) error {
	reqs := make([]types.WriteRequest, 0, len(notificationIDs))
	for _, nid := range notificationIDs {
		reqs = append(reqs, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{Key: strKey("notification_id", nid)},
		})
	}
	return r.batchWrite(ctx, reqs)
}

func (r *NotificationRepo) batchWrite(ctx context.Context, reqs []types.WriteRequest) error {
	for _, span := range chunk(len(reqs), maxBatchWrite) {
		pending := map[string][]types.WriteRequest{r.tableName: reqs[span[0]:span[1]]}
		for attempt := 0; len(pending) > 0; attempt++ {
			if attempt > maxUnprocessedRetries {
				return fmt.Errorf("batch write: %d items left unprocessed", len(pending[r.tableName]))
			}
			out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return fmt.Errorf("batch write: %w", err)
			}
			pending = out.UnprocessedItems
		}
	}
	return nil
}
