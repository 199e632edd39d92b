// Package workflow runs ordered calculator and catalog steps declared in a YAML or JSON plan.
package workflow
