package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"book-recommender/internal/domain"
)

const (
	pkPrefixUser = "USER#"
	skPrefixBook = "BOOK#"
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Client stores bookmarks in a single DynamoDB table, one item per
// (user, book id).
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

func userPK(userID string) string {
	return pkPrefixUser + userID
}

func bookSK(bookID string) string {
	return skPrefixBook + bookID
}

func (c *Client) key(userID, bookID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: userPK(userID)},
		"SK": &types.AttributeValueMemberS{Value: bookSK(bookID)},
	}
}

// ListBookmarks returns every bookmark of the user, following pagination.
func (c *Client) ListBookmarks(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: userPK(userID)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixBook},
		},
	}

	var out []domain.Bookmark
	for {
		page, err := c.api.Query(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("repository: ListBookmarks query: %w", err)
		}
		for _, item := range page.Items {
			b, err := itemToBookmark(item)
			if err != nil {
				return nil, fmt.Errorf("repository: ListBookmarks unmarshal: %w", err)
			}
			out = append(out, b)
		}
		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		in.ExclusiveStartKey = page.LastEvaluatedKey
	}
	return out, nil
}

// GetBookmark returns the bookmark and whether it exists.
func (c *Client) GetBookmark(ctx context.Context, userID, bookID string) (domain.Bookmark, bool, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.tableName),
		Key:            c.key(userID, bookID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Bookmark{}, false, fmt.Errorf("repository: GetBookmark get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Bookmark{}, false, nil
	}
	b, err := itemToBookmark(out.Item)
	if err != nil {
		return domain.Bookmark{}, false, fmt.Errorf("repository: GetBookmark decode: %w", err)
	}
	return b, true, nil
}

// PutBookmark writes or replaces the bookmark record.
func (c *Client) PutBookmark(ctx context.Context, userID string, b domain.Bookmark) error {
	if userID == "" || b.BookID == "" {
		return errors.New("repository: PutBookmark: user id and book id are required")
	}
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      bookmarkItem(userID, b),
	})
	if err != nil {
		return fmt.Errorf("repository: PutBookmark: %w", err)
	}
	return nil
}

// DeleteBookmark removes the bookmark. Deleting a missing item is not an error.
func (c *Client) DeleteBookmark(ctx context.Context, userID, bookID string) error {
	if userID == "" || bookID == "" {
		return errors.New("repository: DeleteBookmark: user id and book id are required")
	}
	_, err := c.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(c.tableName),
		Key:       c.key(userID, bookID),
	})
	if err != nil {
		return fmt.Errorf("repository: DeleteBookmark: %w", err)
	}
	return nil
}

func bookmarkItem(userID string, b domain.Bookmark) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":            &types.AttributeValueMemberS{Value: userPK(userID)},
		"SK":            &types.AttributeValueMemberS{Value: bookSK(b.BookID)},
		"book_id":       &types.AttributeValueMemberS{Value: b.BookID},
		"book_title":    &types.AttributeValueMemberS{Value: b.BookTitle},
		"book_author":   &types.AttributeValueMemberS{Value: b.BookAuthor},
		"thumbnail_url": &types.AttributeValueMemberS{Value: b.ThumbnailURL},
		"status":        &types.AttributeValueMemberS{Value: b.Status},
		"memo":          &types.AttributeValueMemberS{Value: b.Memo},
		"publisher":     &types.AttributeValueMemberS{Value: b.Publisher},
		"description":   &types.AttributeValueMemberS{Value: b.Description},
		"created_at":    &types.AttributeValueMemberS{Value: b.CreatedAt.UTC().Format(time.RFC3339Nano)},
		"updated_at":    &types.AttributeValueMemberS{Value: b.UpdatedAt.UTC().Format(time.RFC3339Nano)},
	}
}

// itemToBookmark converts a DynamoDB attribute map to a Bookmark.
func itemToBookmark(item map[string]types.AttributeValue) (domain.Bookmark, error) {
	bookID, err := strAttr(item, "book_id")
	if err != nil {
		return domain.Bookmark{}, err
	}
	title, err := strAttr(item, "book_title")
	if err != nil {
		return domain.Bookmark{}, err
	}
	createdAt, err := timeAttr(item, "created_at")
	if err != nil {
		return domain.Bookmark{}, err
	}
	updatedAt, err := timeAttr(item, "updated_at")
	if err != nil {
		return domain.Bookmark{}, err
	}
	// optional attributes
	author, _ := strAttr(item, "book_author")
	thumb, _ := strAttr(item, "thumbnail_url")
	status, _ := strAttr(item, "status")
	memo, _ := strAttr(item, "memo")
	publisher, _ := strAttr(item, "publisher")
	description, _ := strAttr(item, "description")

	return domain.Bookmark{
		BookID:       bookID,
		BookTitle:    title,
		BookAuthor:   author,
		ThumbnailURL: thumb,
		Status:       status,
		Memo:         memo,
		Publisher:    publisher,
		Description:  description,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func timeAttr(item map[string]types.AttributeValue, key string) (time.Time, error) {
	s, err := strAttr(item, key)
	if err != nil {
		return time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return ts, nil
}
