// Package gql 单一 GraphQL 入口，字段直接调服务层。
package gql

import (
	"time"

	"github.com/graphql-go/graphql"

	"go-gin-feed-api/internal/domain"
)

// idAlias 兼容按 _id 取主键的客户端
func idAlias(get func(interface{}) (string, bool)) *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewNonNull(graphql.ID),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			id, ok := get(p.Source)
			if !ok {
				return nil, nil
			}
			return id, nil
		},
	}
}

func postID(src interface{}) (string, bool) {
	p, ok := src.(*domain.Post)
	if !ok {
		return "", false
	}
	return p.ID, true
}

func userID(src interface{}) (string, bool) {
	u, ok := src.(*domain.User)
	if !ok {
		return "", false
	}
	return u.ID, true
}

func timeField(get func(*domain.Post) time.Time) *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewNonNull(graphql.String),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			post, ok := p.Source.(*domain.Post)
			if !ok {
				return nil, nil
			}
			return get(post).UTC().Format(time.RFC3339Nano), nil
		},
	}
}

// NewSchema 构建 schema；Post.creator 与 User.posts 互相引用，用 AddFieldConfig 补上
func NewSchema(r *Resolver) (graphql.Schema, error) {
	postType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Post",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"_id":       idAlias(postID),
			"title":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"content":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"imageUrl":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt": timeField(func(p *domain.Post) time.Time { return p.CreatedAt }),
			"updatedAt": timeField(func(p *domain.Post) time.Time { return p.UpdatedAt }),
		},
	})
	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":     &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"_id":    idAlias(userID),
			"name":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"email":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"status": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})
	postType.AddFieldConfig("creator", &graphql.Field{
		Type:    graphql.NewNonNull(userType),
		Resolve: r.postCreator,
	})
	userType.AddFieldConfig("posts", &graphql.Field{
		Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(postType))),
		Resolve: r.userPosts,
	})

	authDataType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthData",
		Fields: graphql.Fields{
			"token":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"userId": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		},
	})
	allPostsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AllPosts",
		Fields: graphql.Fields{
			"posts":      &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(postType)))},
			"totalPosts": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	userStatusType := graphql.NewObject(graphql.ObjectConfig{
		Name: "userStatus",
		Fields: graphql.Fields{
			"status": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})
	postInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "PostInputData",
		Fields: graphql.InputObjectConfigFieldMap{
			"title":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"content":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"imageUrl": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)}, // 更新时传空串保留原图
		},
	})

	nonNullString := graphql.NewNonNull(graphql.String)
	nonNullID := graphql.NewNonNull(graphql.ID)

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "RootQuery",
		Fields: graphql.Fields{
			"login": &graphql.Field{
				Type: graphql.NewNonNull(authDataType),
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: nonNullString},
					"password": &graphql.ArgumentConfig{Type: nonNullString},
				},
				Resolve: r.login,
			},
			"getPosts": &graphql.Field{
				Type:    graphql.NewNonNull(allPostsType),
				Args:    graphql.FieldConfigArgument{"page": &graphql.ArgumentConfig{Type: graphql.Int}},
				Resolve: r.getPosts,
			},
			"getPost": &graphql.Field{
				Type:    graphql.NewNonNull(postType),
				Args:    graphql.FieldConfigArgument{"postId": &graphql.ArgumentConfig{Type: nonNullID}},
				Resolve: r.getPost,
			},
			"getUserStatus": &graphql.Field{
				Type:    graphql.NewNonNull(userStatusType),
				Resolve: r.getUserStatus,
			},
			"user": &graphql.Field{
				Type:    graphql.NewNonNull(userType),
				Resolve: r.viewerUser,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "RootMutation",
		Fields: graphql.Fields{
			"signup": &graphql.Field{
				Type: graphql.NewNonNull(userType),
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: nonNullString},
					"password": &graphql.ArgumentConfig{Type: nonNullString},
					"name":     &graphql.ArgumentConfig{Type: nonNullString},
				},
				Resolve: r.signup,
			},
			"createPost": &graphql.Field{
				Type:    graphql.NewNonNull(postType),
				Args:    graphql.FieldConfigArgument{"postInput": &graphql.ArgumentConfig{Type: postInput}},
				Resolve: r.createPost,
			},
			"updatePost": &graphql.Field{
				Type: graphql.NewNonNull(postType),
				Args: graphql.FieldConfigArgument{
					"id":        &graphql.ArgumentConfig{Type: nonNullID},
					"postInput": &graphql.ArgumentConfig{Type: postInput},
				},
				Resolve: r.updatePost,
			},
			"deletePost": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Boolean),
				Args:    graphql.FieldConfigArgument{"id": &graphql.ArgumentConfig{Type: nonNullID}},
				Resolve: r.deletePost,
			},
			"updateUserStatus": &graphql.Field{
				Type:    graphql.NewNonNull(userType),
				Args:    graphql.FieldConfigArgument{"status": &graphql.ArgumentConfig{Type: nonNullString}},
				Resolve: r.updateUserStatus,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
}
