package main

import (
	"github.com/goliatone/go-attendance/backend"
	attendancecommand "github.com/goliatone/go-attendance/command"
	attendancequery "github.com/goliatone/go-attendance/query"
	"github.com/spf13/cobra"
)

func newUsersCommand(rt *cliRuntime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List and create users",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := rt.printer()
			if err != nil {
				return err
			}
			if _, err := rt.open(cmd.Context()); err != nil {
				return err
			}
			users, err := query[attendancequery.ListUsersMessage, []backend.User](cmd.Context(), attendancequery.ListUsersMessage{})
			if err != nil {
				return err
			}
			return out.print(users)
		},
	})

	var user backend.NewUser
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := rt.printer()
			if err != nil {
				return err
			}
			msg := attendancecommand.CreateUserMessage{User: user}
			if err := msg.Validate(); err != nil {
				return err
			}
			if _, err := rt.open(cmd.Context()); err != nil {
				return err
			}
			result, err := execute[attendancecommand.CreateUserMessage, backend.CreateUserResult](cmd.Context(), msg)
			if err != nil {
				return err
			}
			return out.print(result)
		},
	}
	add.Flags().StringVar(&user.Name, "name", "", "Full name")
	add.Flags().StringVar(&user.Email, "email", "", "Email address")
	add.Flags().StringVar(&user.Password, "password", "", "Initial password")
	add.Flags().StringVar(&user.Role, "role", "", "Role: user, teacher or admin (default user)")
	add.Flags().IntVar(&user.FingerprintID, "fingerprint-id", 0, "Fingerprint sensor slot")
	cmd.AddCommand(add)
	return cmd
}

func newCoursesCommand(rt *cliRuntime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "List and create courses",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := rt.printer()
			if err != nil {
				return err
			}
			if _, err := rt.open(cmd.Context()); err != nil {
				return err
			}
			courses, err := query[attendancequery.ListCoursesMessage, []backend.Course](cmd.Context(), attendancequery.ListCoursesMessage{})
			if err != nil {
				return err
			}
			return out.print(courses)
		},
	})

	var course backend.NewCourse
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a course",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := rt.printer()
			if err != nil {
				return err
			}
			msg := attendancecommand.CreateCourseMessage{Course: course}
			if err := msg.Validate(); err != nil {
				return err
			}
			if _, err := rt.open(cmd.Context()); err != nil {
				return err
			}
			result, err := execute[attendancecommand.CreateCourseMessage, backend.CreateCourseResult](cmd.Context(), msg)
			if err != nil {
				return err
			}
			return out.print(result)
		},
	}
	add.Flags().StringVar(&course.Code, "code", "", "Course code")
	add.Flags().StringVar(&course.Name, "name", "", "Course name")
	add.Flags().StringVar(&course.Schedule, "schedule", "", "Schedule, for example \"Mon 09:00\"")
	add.Flags().StringVar(&course.Description, "description", "", "Description")
	cmd.AddCommand(add)
	return cmd
}
