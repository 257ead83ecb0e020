package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/capstone-api/internal/config"
	"github.com/capstone-api/internal/domain"
)

// TaskRepo reads tasks and walks the task -> function -> feature -> project chain.
type TaskRepo struct {
	client    API
	tasks     string
	functions string
	features  string
	projects  string
}

func NewTaskRepo(client API, tables config.DynamoTables) *TaskRepo {
	return &TaskRepo{
		client:    client,
		tasks:     tables.Tasks,
		functions: tables.Functions,
		features:  tables.Features,
		projects:  tables.Projects,
	}
}

func (r *TaskRepo) Put(ctx context.Context, t *domain.Task) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tasks),
		Item:      item,
	})
	return err
}

func (r *TaskRepo) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	var t domain.Task
	if err := getItem(ctx, r.client, r.tasks, "task_id", taskID, &t); err != nil {
		return nil, fmt.Errorf("task %s: %w", taskID, err)
	}
	return &t, nil
}

// ListDue scans for non-terminal tasks whose deadline falls in the filter range.
func (r *TaskRepo) ListDue(ctx context.Context, f domain.DueFilter) ([]domain.Task, error) {
	in := dueScanInput(r.tasks, f)
	p := dynamodb.NewScanPaginator(r.client, in)

	var tasks []domain.Task
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan tasks: %w", err)
		}
		var page []domain.Task
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal tasks: %w", err)
		}
		tasks = append(tasks, page...)
	}
	return tasks, nil
}

func dueScanInput(table string, f domain.DueFilter) *dynamodb.ScanInput {
	names := map[string]string{"#dl": fieldDeadline}
	values := map[string]types.AttributeValue{":before": unixVal(f.Before)}

	filter := "#dl < :before"
	if f.From != nil {
		filter = "#dl >= :from AND " + filter
		values[":from"] = unixVal(*f.From)
	}

	terminal := make([]string, len(domain.TerminalTaskStatuses))
	for i, s := range domain.TerminalTaskStatuses {
		terminal[i] = string(s)
	}
	filter += " AND " + notInExpr(fieldStatus, "st", terminal, names, values)

	return &dynamodb.ScanInput{
		TableName:                 aws.String(table),
		FilterExpression:          aws.String(filter),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}
}

// ResolveChain loads the function, feature and project above a task. Any
// missing link yields an error wrapping domain.ErrNotFound.
func (r *TaskRepo) ResolveChain(ctx context.Context, t *domain.Task) (*domain.TaskChain, error) {
	chain := &domain.TaskChain{Task: *t}
	if t.FunctionID == "" {
		return nil, fmt.Errorf("task %s has no function: %w", t.TaskID, domain.ErrNotFound)
	}
	if err := getItem(ctx, r.client, r.functions, "function_id", t.FunctionID, &chain.Function); err != nil {
		return nil, fmt.Errorf("function %s: %w", t.FunctionID, err)
	}
	if chain.Function.FeatureID == "" {
		return nil, fmt.Errorf("function %s has no feature: %w", t.FunctionID, domain.ErrNotFound)
	}
	if err := getItem(ctx, r.client, r.features, "feature_id", chain.Function.FeatureID, &chain.Feature); err != nil {
		return nil, fmt.Errorf("feature %s: %w", chain.Function.FeatureID, err)
	}
	if chain.Feature.ProjectID == "" {
		return nil, fmt.Errorf("feature %s has no project: %w", chain.Feature.FeatureID, domain.ErrNotFound)
	}
	if err := getItem(ctx, r.client, r.projects, "project_id", chain.Feature.ProjectID, &chain.Project); err != nil {
		return nil, fmt.Errorf("project %s: %w", chain.Feature.ProjectID, err)
	}
	return chain, nil
}

// getItem fetches a single item by string hash key into out.
func getItem(ctx context.Context, client API, table, key, value string, out interface{}) error {
	res, err := client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       strKey(key, value),
	})
	if err != nil {
		return err
	}
	if res.Item == nil {
		return domain.ErrNotFound
	}
	return attributevalue.UnmarshalMap(res.Item, out)
}
