package notify

import "fmt"

func reviewRequestedText(pair identityPair, pullRequestURL string) string {
	return fmt.Sprintf("🧐 %s requested code review from %s:\n%s", pair.requester.mention(), pair.reviewer.mention(), pullRequestURL)
}

func approvedText(reviewURL string) string {
	return fmt.Sprintf("🎉 Your pull request has been approved!\n%s", reviewURL)
}

func reviewedText(pair identityPair, reviewURL string) string {
	return fmt.Sprintf("👏 %s's pull request has been reviewed by %s\n%s", pair.requester.mention(), pair.reviewer.mention(), reviewURL)
}

func unlinkedNote(githubName string) string {
	return fmt.Sprintf("\n\nNote: %s has not been linked to this workspace yet.", githubName)
}

// LinkMenuText is the attachment text shown above the link button.
func LinkMenuText(githubName string) string {
	return fmt.Sprintf("If the user of %s is in this workspace, you can set up link for the user.", githubName)
}

// LinkMenuButtonText is the label of the link button.
func LinkMenuButtonText(githubName string) string {
	return "Link for " + githubName
}
