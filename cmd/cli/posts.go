package main

import "github.com/spf13/cobra"

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "List, inspect and delete posts",
}

var listPostsCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts in feed order",
	Long: `List posts the way the board shows them.

Examples:
  keizibann posts list
  keizibann posts list --sort popular
  keizibann posts list --sort recent_popular -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sortBy, _ := cmd.Flags().GetString("sort")
		limit, _ := cmd.Flags().GetInt("limit")

		posts, err := apiClient().ListPosts(sortBy)
		if err != nil {
			return err
		}
		if limit > 0 && len(posts) > limit {
			posts = posts[:limit]
		}
		return printPosts(posts)
	},
}

var viewPostCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show a post with its daily view window",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		post, err := apiClient().GetPost(args[0])
		if err != nil {
			return err
		}
		return printPost(post)
	},
}

var deletePostCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a post (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiClient().DeletePost(args[0]); err != nil {
			return err
		}
		cliLog.Info("Post deleted", "post_id", args[0])
		printSuccess("Deleted post %s", args[0])
		return nil
	},
}

func init() {
	postsCmd.AddCommand(listPostsCmd)
	postsCmd.AddCommand(viewPostCmd)
	postsCmd.AddCommand(deletePostCmd)

	listPostsCmd.Flags().String("sort", "recent", "Sort order: recent, popular, recent_popular")
	listPostsCmd.Flags().IntP("limit", "l", 0, "Show at most this many posts")
	listPostsCmd.RegisterFlagCompletionFunc("sort", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"recent", "popular", "recent_popular"}, cobra.ShellCompDirectiveNoFileComp
	})
}

var commentsCmd = &cobra.Command{
	Use:   "comments",
	Short: "List and delete comments",
}

var listCommentsCmd = &cobra.Command{
	Use:   "list <postId>",
	Short: "List a post's comments, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comments, err := apiClient().ListComments(args[0])
		if err != nil {
			return err
		}
		return printComments(comments)
	},
}

var deleteCommentCmd = &cobra.Command{
	Use:   "delete <postId> <commentId>",
	Short: "Delete a comment (admin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiClient().DeleteComment(args[0], args[1]); err != nil {
			return err
		}
		printSuccess("Deleted comment %s", args[1])
		return nil
	},
}

func init() {
	commentsCmd.AddCommand(listCommentsCmd)
	commentsCmd.AddCommand(deleteCommentCmd)
}

