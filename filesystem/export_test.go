package filesystem

var ClassifyErr = classifyErr
