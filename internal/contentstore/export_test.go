package contentstore

// Exposed to contentstore_test, which can import packages that depend on
// contentstore.
var NewTestGitHubStore = newTestGitHubStore

func NewFakeContentsAPI() *fakeContentsAPI { return newFakeContentsAPI() }
