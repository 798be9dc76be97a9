// Package appconfig loads goseal-server settings from the environment, an
// optional .env file and an optional YAML file named by GOSEAL_CONFIG.
//
// Precedence, lowest first: built-in defaults, YAML file, environment.
package appconfig
