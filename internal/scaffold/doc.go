// Package scaffold produces one project file from one remote template. A Step
// fetches the template text, renders it with the plugin name, and writes the
// result under the project root. It backs every file the "frbtool create"
// command generates from the template store.
package scaffold
