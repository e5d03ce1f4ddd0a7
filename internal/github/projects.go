package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type graphQLError struct {
	Message string `json:"message"`
}

// graphql posts a query to the GraphQL endpoint and decodes the full
// response envelope into out.
func (c *Client) graphql(ctx context.Context, query string, variables map[string]any, out any) error {
	payload := map[string]any{"query": query}
	if len(variables) > 0 {
		payload["variables"] = variables
	}

	body, err := c.do(ctx, http.MethodPost, "/graphql", payload)
	if err != nil {
		return err
	}
	return unmarshalResponse(body, out)
}

func unmarshalResponse(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("github: decoding response: %w", err)
	}
	return nil
}

// projectItemsQuery walks a ProjectV2 board owned by a user or
// organization. Both owner types are queried; whichever resolves wins.
const projectItemsQuery = `query($owner: String!, $number: Int!) {
	organization(login: $owner) {
		projectV2(number: $number) { items(first: 100) { nodes { ...itemFields } } }
	}
	user(login: $owner) {
		projectV2(number: $number) { items(first: 100) { nodes { ...itemFields } } }
	}
}
fragment itemFields on ProjectV2Item {
	id
	content {
		__typename
		... on Issue { title body url }
		... on PullRequest { title body url }
		... on DraftIssue { title body }
	}
	fieldValues(first: 20) {
		nodes {
			... on ProjectV2ItemFieldTextValue {
				text
				field { ... on ProjectV2Field { name } }
			}
			... on ProjectV2ItemFieldSingleSelectValue {
				name
				field { ... on ProjectV2SingleSelectField { name } }
			}
		}
	}
}`

type projectItemNode struct {
	ID      string `json:"id"`
	Content struct {
		Typename string `json:"__typename"`
		Title    string `json:"title"`
		Body     string `json:"body"`
		URL      string `json:"url"`
	} `json:"content"`
	FieldValues struct {
		Nodes []struct {
			Text  string `json:"text"`
			Name  string `json:"name"`
			Field struct {
				Name string `json:"name"`
			} `json:"field"`
		} `json:"nodes"`
	} `json:"fieldValues"`
}

type projectItemsConnection struct {
	ProjectV2 *struct {
		Items struct {
			Nodes []projectItemNode `json:"nodes"`
		} `json:"items"`
	} `json:"projectV2"`
}

// ProjectItems fetches the items of a ProjectV2 board by number. The owner
// login may name either an organization or a user.
func (c *Client) ProjectItems(ctx context.Context, owner string, number int) ([]ProjectItem, error) {
	if owner == "" {
		return nil, fmt.Errorf("github: project owner not configured")
	}

	var result struct {
		Data struct {
			Organization *projectItemsConnection `json:"organization"`
			User         *projectItemsConnection `json:"user"`
		} `json:"data"`
		Errors []graphQLError `json:"errors"`
	}

	variables := map[string]any{"owner": owner, "number": number}
	if err := c.graphql(ctx, projectItemsQuery, variables, &result); err != nil {
		return nil, err
	}

	var nodes []projectItemNode
	switch {
	case result.Data.Organization != nil && result.Data.Organization.ProjectV2 != nil:
		nodes = result.Data.Organization.ProjectV2.Items.Nodes
	case result.Data.User != nil && result.Data.User.ProjectV2 != nil:
		nodes = result.Data.User.ProjectV2.Items.Nodes
	case len(result.Errors) > 0:
		return nil, &APIError{StatusCode: 200, Message: result.Errors[0].Message}
	default:
		return nil, &APIError{
			StatusCode: 404,
			Message:    fmt.Sprintf("project %d not found for %s", number, owner),
		}
	}

	items := make([]ProjectItem, 0, len(nodes))
	for _, node := range nodes {
		item := ProjectItem{
			ID:    node.ID,
			Title: node.Content.Title,
			Body:  node.Content.Body,
			URL:   node.Content.URL,
			Type:  node.Content.Typename,
		}
		for _, value := range node.FieldValues.Nodes {
			if value.Field.Name == "" {
				continue
			}
			if item.Fields == nil {
				item.Fields = make(map[string]string)
			}
			if value.Text != "" {
				item.Fields[value.Field.Name] = value.Text
			} else if value.Name != "" {
				item.Fields[value.Field.Name] = value.Name
			}
		}
		items = append(items, item)
	}
	return items, nil
}
